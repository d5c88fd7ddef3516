package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/menu_backend/config"
	"github.com/mmdatafocus/menu_backend/utils"
	"gorm.io/gorm"
)

type Submenu struct {
	ID          string    `gorm:"type:char(36);primary_key" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:500;not null" json:"description"`
	MenuId      string    `gorm:"type:char(36);not null;index" json:"menu_id"`
	Dishes      []Dish    `gorm:"foreignKey:SubmenuId;constraint:OnDelete:CASCADE" json:"dishes,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

type NewSubmenu struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type SubmenuView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SubmenuWithCount struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// nil when the submenu has no dishes, so the key is omitted.
	DishesCount *int `json:"dishes_count,omitempty"`
}

func (s *Submenu) view() *SubmenuView {
	return &SubmenuView{ID: s.ID, Title: s.Title, Description: s.Description}
}

func GetSubmenus(ctx context.Context, menuId string) ([]*SubmenuView, error) {

	key := utils.ListSubmenusKeyFor(menuId)
	cached, hit, err := utils.RetrieveCachedList[SubmenuView](key)
	if err != nil {
		cacheWarn("GetSubmenus", key, err)
	}
	if hit {
		return cached, nil
	}

	db := config.GetDB()
	var submenus []*Submenu
	if err := db.WithContext(ctx).Where("menu_id = ?", menuId).Order("id").
		Find(&submenus).Error; err != nil {
		return nil, err
	}
	results := make([]*SubmenuView, 0, len(submenus))
	for _, s := range submenus {
		results = append(results, s.view())
	}
	if err := utils.StoreCached(key, results); err != nil {
		cacheWarn("GetSubmenus", key, err)
	}
	return results, nil
}

// GetSubmenuWithCount returns the submenu plus the count of its dishes.
// A submenu without dishes comes back bare, without the count field.
func GetSubmenuWithCount(ctx context.Context, id string) (*SubmenuWithCount, error) {

	key := utils.SubmenuKey(id)
	cached, hit, err := utils.RetrieveCached[SubmenuWithCount](key)
	if err != nil {
		cacheWarn("GetSubmenuWithCount", key, err)
	}
	if hit {
		return cached, nil
	}

	submenu, err := utils.FetchModel[Submenu](ctx, id)
	if err != nil {
		return nil, err
	}

	var dishesCount int64
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Dish{}).Where("submenu_id = ?", id).
		Count(&dishesCount).Error; err != nil {
		return nil, err
	}

	result := &SubmenuWithCount{
		ID:          submenu.ID,
		Title:       submenu.Title,
		Description: submenu.Description,
	}
	if dishesCount > 0 {
		count := int(dishesCount)
		result.DishesCount = &count
	}
	if err := utils.StoreCached(key, result); err != nil {
		cacheWarn("GetSubmenuWithCount", key, err)
	}
	return result, nil
}

// validate input for both create & update. (exceptId = "" for create)
func (input *NewSubmenu) validate(ctx context.Context, exceptId string) error {
	return utils.ValidateUniqueTitle[Submenu](ctx, input.Title, exceptId)
}

func CreateSubmenu(ctx context.Context, menuId string, input *NewSubmenu) (*SubmenuView, error) {

	if err := utils.ValidateResourceId[Menu](ctx, menuId); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	submenu := Submenu{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		MenuId:      menuId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submenu).Error; err != nil {
			return err
		}
		keys, prefixes := utils.SubmenuInvalidation(submenu.ID, menuId)
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
	if err != nil {
		return nil, err
	}
	return submenu.view(), nil
}

func UpdateSubmenu(ctx context.Context, id string, input *NewSubmenu) (*SubmenuView, error) {

	submenu, err := utils.FetchModel[Submenu](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&submenu).Updates(map[string]interface{}{
			"Title":       input.Title,
			"Description": input.Description,
		}).Error; err != nil {
			return err
		}
		keys, prefixes := utils.SubmenuInvalidation(id, submenu.MenuId)
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
	if err != nil {
		return nil, err
	}
	return submenu.view(), nil
}

func DeleteSubmenu(ctx context.Context, id string) error {

	submenu, err := utils.FetchModel[Submenu](ctx, id)
	if err != nil {
		return err
	}

	db := config.GetDB()
	var dishIds []string
	if err := db.WithContext(ctx).Model(&Dish{}).Where("submenu_id = ?", id).
		Pluck("id", &dishIds).Error; err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// FK constraint cascades to dishes
		if err := tx.Delete(&submenu).Error; err != nil {
			return err
		}
		keys, prefixes := utils.SubmenuInvalidation(id, submenu.MenuId)
		for _, dishId := range dishIds {
			keys = append(keys, utils.DishKey(dishId))
		}
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
}
