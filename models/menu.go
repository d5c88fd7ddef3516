package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/menu_backend/config"
	"github.com/mmdatafocus/menu_backend/utils"
	"gorm.io/gorm"
)

type Menu struct {
	ID          string    `gorm:"type:char(36);primary_key" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:500;not null" json:"description"`
	Submenus    []Submenu `gorm:"foreignKey:MenuId;constraint:OnDelete:CASCADE" json:"submenus,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

type NewMenu struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type MenuView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type MenuWithCounts struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SubmenusCount int    `json:"submenus_count"`
	DishesCount   int    `json:"dishes_count"`
}

func (m *Menu) view() *MenuView {
	return &MenuView{ID: m.ID, Title: m.Title, Description: m.Description}
}

// cache errors never fail a read; log and fall through to the database
func cacheWarn(funcName string, key string, err error) {
	config.LogError(config.GetLogger(), "models", funcName, "cache degraded to miss, key="+key, nil, err)
}

func GetMenus(ctx context.Context) ([]*MenuView, error) {

	cached, hit, err := utils.RetrieveCachedList[MenuView](utils.ListMenusKey)
	if err != nil {
		cacheWarn("GetMenus", utils.ListMenusKey, err)
	}
	if hit {
		return cached, nil
	}

	db := config.GetDB()
	var menus []*Menu
	if err := db.WithContext(ctx).Order("id").Find(&menus).Error; err != nil {
		return nil, err
	}
	results := make([]*MenuView, 0, len(menus))
	for _, m := range menus {
		results = append(results, m.view())
	}
	if err := utils.StoreCached(utils.ListMenusKey, results); err != nil {
		cacheWarn("GetMenus", utils.ListMenusKey, err)
	}
	return results, nil
}

// GetNestedMenus returns the full Menu -> Submenu -> Dish tree.
func GetNestedMenus(ctx context.Context) ([]*Menu, error) {

	cached, hit, err := utils.RetrieveCachedList[Menu](utils.NestedMenusKey)
	if err != nil {
		cacheWarn("GetNestedMenus", utils.NestedMenusKey, err)
	}
	if hit {
		return cached, nil
	}

	db := config.GetDB()
	// initialized so an empty store renders [] rather than null
	menus := make([]*Menu, 0)
	if err := db.WithContext(ctx).
		Preload("Submenus", func(db *gorm.DB) *gorm.DB { return db.Order("submenus.id") }).
		Preload("Submenus.Dishes", func(db *gorm.DB) *gorm.DB { return db.Order("dishes.id") }).
		Order("id").Find(&menus).Error; err != nil {
		return nil, err
	}
	if err := utils.StoreCached(utils.NestedMenusKey, menus); err != nil {
		cacheWarn("GetNestedMenus", utils.NestedMenusKey, err)
	}
	return menus, nil
}

// GetMenuWithCounts returns the menu plus submenus_count and dishes_count.
// dishes_count carries the MAX per-submenu dish count, not the cross-submenu
// sum.
func GetMenuWithCounts(ctx context.Context, id string) (*MenuWithCounts, error) {

	key := utils.MenuKey(id)
	cached, hit, err := utils.RetrieveCached[MenuWithCounts](key)
	if err != nil {
		cacheWarn("GetMenuWithCounts", key, err)
	}
	if hit {
		return cached, nil
	}

	menu, err := utils.FetchModel[Menu](ctx, id)
	if err != nil {
		return nil, err
	}

	var counts struct {
		SubmenusCount int
		DishesCount   int
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(`
SELECT
    COUNT(DISTINCT submenus.id) AS submenus_count,
    COALESCE(MAX(sub.dish_count), 0) AS dishes_count
FROM
    submenus
    LEFT JOIN (
        SELECT dishes.submenu_id AS submenu_id, COUNT(dishes.id) AS dish_count
        FROM dishes
        GROUP BY dishes.submenu_id
    ) AS sub ON sub.submenu_id = submenus.id
WHERE
    submenus.menu_id = ?
`, id).Scan(&counts).Error; err != nil {
		return nil, err
	}

	result := &MenuWithCounts{
		ID:            menu.ID,
		Title:         menu.Title,
		Description:   menu.Description,
		SubmenusCount: counts.SubmenusCount,
		DishesCount:   counts.DishesCount,
	}
	if err := utils.StoreCached(key, result); err != nil {
		cacheWarn("GetMenuWithCounts", key, err)
	}
	return result, nil
}

func CreateMenu(ctx context.Context, input *NewMenu) (*MenuView, error) {

	menu := Menu{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&menu).Error; err != nil {
			return err
		}
		keys, prefixes := utils.MenuInvalidation(menu.ID)
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
	if err != nil {
		return nil, err
	}
	return menu.view(), nil
}

func UpdateMenu(ctx context.Context, id string, input *NewMenu) (*MenuView, error) {

	menu, err := utils.FetchModel[Menu](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&menu).Updates(map[string]interface{}{
			"Title":       input.Title,
			"Description": input.Description,
		}).Error; err != nil {
			return err
		}
		keys, prefixes := utils.MenuInvalidation(id)
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
	if err != nil {
		return nil, err
	}
	return menu.view(), nil
}

func DeleteMenu(ctx context.Context, id string) error {

	menu, err := utils.FetchModel[Menu](ctx, id)
	if err != nil {
		return err
	}

	// collect descendant ids first: their single-entity views must be dropped
	// along with the menu's own keys once the cascade removes the rows
	db := config.GetDB()
	var submenuIds []string
	if err := db.WithContext(ctx).Model(&Submenu{}).Where("menu_id = ?", id).
		Pluck("id", &submenuIds).Error; err != nil {
		return err
	}
	var dishIds []string
	if len(submenuIds) > 0 {
		if err := db.WithContext(ctx).Model(&Dish{}).Where("submenu_id IN ?", submenuIds).
			Pluck("id", &dishIds).Error; err != nil {
			return err
		}
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// FK constraints cascade to submenus and dishes
		if err := tx.Delete(&menu).Error; err != nil {
			return err
		}
		keys, prefixes := utils.MenuInvalidation(id)
		for _, submenuId := range submenuIds {
			keys = append(keys, utils.SubmenuKey(submenuId))
		}
		for _, dishId := range dishIds {
			keys = append(keys, utils.DishKey(dishId))
		}
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
}

// CountMenus reports how many menu rows exist; the reconciliation engine uses
// it as its bootstrap check.
func CountMenus(ctx context.Context) (int64, error) {
	return utils.ResourceCountWhere[Menu](ctx, "1 = 1")
}
