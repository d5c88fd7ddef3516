package menusync

import (
	"context"

	"github.com/mmdatafocus/menu_backend/config"
	"github.com/mmdatafocus/menu_backend/models"
	"gorm.io/gorm"
)

// EntityStore is the slice of the relational store the reconciliation engine
// needs. Every mutating call commits before returning; there is no
// transaction spanning entity types.
type EntityStore interface {
	HasMenus(ctx context.Context) (bool, error)

	ListMenus(ctx context.Context) ([]*models.Menu, error)
	ListSubmenus(ctx context.Context) ([]*models.Submenu, error)
	ListDishes(ctx context.Context) ([]*models.Dish, error)

	InsertMenus(ctx context.Context, records []MenuRecord) error
	InsertSubmenus(ctx context.Context, records []SubmenuRecord) error
	InsertDishes(ctx context.Context, records []DishRecord) error

	DeleteMenu(ctx context.Context, id string) error
	DeleteSubmenu(ctx context.Context, id string) error
	DeleteDish(ctx context.Context, id string) error

	UpdateMenu(ctx context.Context, id string, title string, description string) error
	UpdateSubmenu(ctx context.Context, id string, title string, description string) error
	UpdateDish(ctx context.Context, id string, title string, description string, price string) error

	DeleteAll(ctx context.Context) error
}

// SnapshotCache is the slice of the cache the engine needs: the saved
// snapshot plus key invalidation.
type SnapshotCache interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	DeleteSnapshot(ctx context.Context) error

	RemoveKeys(ctx context.Context, keys ...string) error
	RemoveByPrefix(ctx context.Context, prefix string) error
}

/* gorm-backed entity store */

type gormEntityStore struct{}

func NewEntityStore() EntityStore {
	return gormEntityStore{}
}

func (gormEntityStore) HasMenus(ctx context.Context) (bool, error) {
	count, err := models.CountMenus(ctx)
	return count > 0, err
}

func (gormEntityStore) ListMenus(ctx context.Context) ([]*models.Menu, error) {
	db := config.GetDB()
	var menus []*models.Menu
	err := db.WithContext(ctx).Order("id").Find(&menus).Error
	return menus, err
}

func (gormEntityStore) ListSubmenus(ctx context.Context) ([]*models.Submenu, error) {
	db := config.GetDB()
	var submenus []*models.Submenu
	err := db.WithContext(ctx).Order("id").Find(&submenus).Error
	return submenus, err
}

func (gormEntityStore) ListDishes(ctx context.Context) ([]*models.Dish, error) {
	db := config.GetDB()
	var dishes []*models.Dish
	err := db.WithContext(ctx).Order("id").Find(&dishes).Error
	return dishes, err
}

func (gormEntityStore) InsertMenus(ctx context.Context, records []MenuRecord) error {
	if len(records) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range records {
			menu := models.Menu{ID: r.Id, Title: r.Title, Description: r.Description}
			if err := tx.Create(&menu).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (gormEntityStore) InsertSubmenus(ctx context.Context, records []SubmenuRecord) error {
	if len(records) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range records {
			submenu := models.Submenu{ID: r.Id, Title: r.Title, Description: r.Description, MenuId: r.MenuId}
			if err := tx.Create(&submenu).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (gormEntityStore) InsertDishes(ctx context.Context, records []DishRecord) error {
	if len(records) == 0 {
		return nil
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range records {
			dish := models.Dish{ID: r.Id, Title: r.Title, Description: r.Description, Price: r.Price, SubmenuId: r.SubmenuId}
			if err := tx.Create(&dish).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (gormEntityStore) DeleteMenu(ctx context.Context, id string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&models.Menu{}, "id = ?", id).Error
}

func (gormEntityStore) DeleteSubmenu(ctx context.Context, id string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&models.Submenu{}, "id = ?", id).Error
}

func (gormEntityStore) DeleteDish(ctx context.Context, id string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Delete(&models.Dish{}, "id = ?", id).Error
}

func (gormEntityStore) UpdateMenu(ctx context.Context, id string, title string, description string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&models.Menu{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "description": description}).Error
}

func (gormEntityStore) UpdateSubmenu(ctx context.Context, id string, title string, description string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&models.Submenu{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "description": description}).Error
}

func (gormEntityStore) UpdateDish(ctx context.Context, id string, title string, description string, price string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&models.Dish{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "description": description, "price": price}).Error
}

func (gormEntityStore) DeleteAll(ctx context.Context) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// children first so the FK constraints never block
		if err := tx.Where("1 = 1").Delete(&models.Dish{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Submenu{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&models.Menu{}).Error
	})
}
