package utils

// Cache key registry for the menu app.
//
// Every cached read view and every invalidation path derives its key here, so
// the services and the reconciliation engine can never disagree on naming.
// Per-identifier variants append "_<id>" to the base name, which is what makes
// prefix deletion of a list key cover all of its scoped variants.

const (
	ListMenusKey    = "list_menus"
	ListSubmenusKey = "list_submenus"
	ListDishesKey   = "list_dishes"
	NestedMenusKey  = "nested_menus"

	DishDiscountKey = "dish_discounts"

	// Saved snapshot of the last reconciliation run, one list per entity type.
	ExcelMenuKey    = "excel_menu_key"
	ExcelSubmenuKey = "excel_submenu_key"
	ExcelDishKey    = "excel_dish_key"

	cacheKeySeparator = "_"
)

func MenuKey(menuId string) string {
	return "menu" + cacheKeySeparator + menuId
}

func SubmenuKey(submenuId string) string {
	return "submenu" + cacheKeySeparator + submenuId
}

func DishKey(dishId string) string {
	return "dish" + cacheKeySeparator + dishId
}

// ListSubmenusKeyFor names the submenu list view scoped to one menu.
func ListSubmenusKeyFor(menuId string) string {
	return ListSubmenusKey + cacheKeySeparator + menuId
}

// ListDishesKeyFor names the dish list view scoped to one submenu.
func ListDishesKeyFor(submenuId string) string {
	return ListDishesKey + cacheKeySeparator + submenuId
}
