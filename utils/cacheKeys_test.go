package utils

import "testing"

func TestEntityKeys(t *testing.T) {
	if got := MenuKey("abc"); got != "menu_abc" {
		t.Fatalf("MenuKey = %q", got)
	}
	if got := SubmenuKey("abc"); got != "submenu_abc" {
		t.Fatalf("SubmenuKey = %q", got)
	}
	if got := DishKey("abc"); got != "dish_abc" {
		t.Fatalf("DishKey = %q", got)
	}
	// scoped list keys share the plain list key as prefix so a prefix scan
	// over list_submenus also drops every per-menu list
	if got := ListSubmenusKeyFor("m1"); got != "list_submenus_m1" {
		t.Fatalf("ListSubmenusKeyFor = %q", got)
	}
	if got := ListDishesKeyFor("s1"); got != "list_dishes_s1" {
		t.Fatalf("ListDishesKeyFor = %q", got)
	}
}

func TestMenuInvalidationFanOut(t *testing.T) {
	keys, prefixes := MenuInvalidation("m1")
	for _, want := range []string{"menu_m1", ListMenusKey, NestedMenusKey} {
		if !contains(keys, want) {
			t.Fatalf("menu fan-out missing %q: %v", want, keys)
		}
	}
	for _, want := range []string{ListSubmenusKey, ListDishesKey} {
		if !contains(prefixes, want) {
			t.Fatalf("menu fan-out missing prefix %q: %v", want, prefixes)
		}
	}
}

func TestSubmenuInvalidationFanOut(t *testing.T) {
	keys, prefixes := SubmenuInvalidation("s1", "m1")
	for _, want := range []string{"submenu_s1", "menu_m1", NestedMenusKey} {
		if !contains(keys, want) {
			t.Fatalf("submenu fan-out missing %q: %v", want, keys)
		}
	}
	if contains(keys, ListMenusKey) {
		// menu list shows only titles/descriptions; a submenu write does
		// not affect it
		t.Fatalf("submenu fan-out must not drop the menu list: %v", keys)
	}
	if !contains(prefixes, ListDishesKey) {
		t.Fatalf("submenu fan-out missing dish list prefix: %v", prefixes)
	}
}

func TestDishInvalidationFanOut(t *testing.T) {
	keys, prefixes := DishInvalidation("d1", "s1", "m1")
	for _, want := range []string{"dish_d1", "submenu_s1", "menu_m1", NestedMenusKey} {
		if !contains(keys, want) {
			t.Fatalf("dish fan-out missing %q: %v", want, keys)
		}
	}
	if contains(prefixes, ListSubmenusKey) {
		t.Fatalf("dish fan-out must not scan submenu lists: %v", prefixes)
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
