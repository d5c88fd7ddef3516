package utils

// Invalidation fan-out per entity type. The write services and the
// reconciliation engine both derive stale-key sets here; a mismatch between
// the two would leave cached views permanently stale.

// MenuInvalidation covers a menu write. Cascade deletes take the child list
// views down with it, so both scoped list prefixes are included.
func MenuInvalidation(menuId string) (keys []string, prefixes []string) {
	keys = []string{MenuKey(menuId), ListMenusKey, NestedMenusKey}
	prefixes = []string{ListSubmenusKey, ListDishesKey}
	return keys, prefixes
}

// SubmenuInvalidation covers a submenu write. The owning menu's single view
// embeds submenu/dish counters, so it goes stale too.
func SubmenuInvalidation(submenuId string, menuId string) (keys []string, prefixes []string) {
	keys = []string{SubmenuKey(submenuId), MenuKey(menuId), NestedMenusKey}
	prefixes = []string{ListSubmenusKey, ListDishesKey}
	return keys, prefixes
}

// DishInvalidation covers a dish write. Menu and submenu single views embed
// dish data (counters, nested views), so both go stale.
func DishInvalidation(dishId string, submenuId string, menuId string) (keys []string, prefixes []string) {
	keys = []string{DishKey(dishId), SubmenuKey(submenuId), MenuKey(menuId), NestedMenusKey}
	prefixes = []string{ListDishesKey}
	return keys, prefixes
}
