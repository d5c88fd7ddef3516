package models

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/menu_backend/config"
	"github.com/mmdatafocus/menu_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Dish struct {
	ID          string    `gorm:"type:char(36);primary_key" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"size:500;not null" json:"description"`
	Price       string    `gorm:"size:50;not null" json:"price"`
	SubmenuId   string    `gorm:"type:char(36);not null;index" json:"submenu_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

type NewDish struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Price       string `json:"price" binding:"required,decimalprice"`
}

type DishView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Discount    string `json:"discount"`
}

// DishDiscount is the cache-only discount table written by the spreadsheet
// parser. Matching is by title substring containment, not equality.
type DishDiscount struct {
	Title    string `json:"title"`
	Discount string `json:"discount"`
}

// ValidatePrice rejects a price that does not parse as a decimal.
func ValidatePrice(price string) error {
	if _, err := decimal.NewFromString(price); err != nil {
		return utils.ErrorInvalidPrice
	}
	return nil
}

// NormalizePrice renders a price with exactly two decimal places, rounding
// half away from zero. Unparsable stored values pass through untouched.
func NormalizePrice(price string) string {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return price
	}
	return d.StringFixed(2)
}

// DiscountPercent resolves the effective discount for a dish title against
// the discount table: first entry whose title the dish title contains wins.
// Absent, unparsable, negative or >99 values all mean no discount.
func DiscountPercent(dishTitle string, discounts []*DishDiscount) int64 {
	for _, entry := range discounts {
		if entry == nil || entry.Title == "" {
			continue
		}
		if !strings.Contains(dishTitle, entry.Title) {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(entry.Discount))
		if err != nil {
			return 0
		}
		value := d.IntPart()
		if value < 0 || value > 99 {
			return 0
		}
		return value
	}
	return 0
}

// ApplyDiscount produces the effective price: price * (1 - discount/100),
// rounded to two decimals.
func ApplyDiscount(price string, percent int64) string {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return price
	}
	factor := decimal.NewFromInt(100 - percent).Div(decimal.NewFromInt(100))
	return d.Mul(factor).StringFixed(2)
}

// enrich resolves the cached discount table and rewrites price/discount on
// the view. A missing or unreadable table means discount 0.
func (v *DishView) enrich(discounts []*DishDiscount) {
	percent := DiscountPercent(v.Title, discounts)
	v.Price = ApplyDiscount(v.Price, percent)
	v.Discount = decimal.NewFromInt(percent).String() + "%"
}

func loadDiscountTable() []*DishDiscount {
	discounts, hit, err := utils.RetrieveCachedList[DishDiscount](utils.DishDiscountKey)
	if err != nil {
		cacheWarn("loadDiscountTable", utils.DishDiscountKey, err)
		return nil
	}
	if !hit {
		return nil
	}
	return discounts
}

// views are cached with the raw stored price; the discount table is applied
// on every read so a refreshed table takes effect without invalidation
func (d *Dish) view() *DishView {
	return &DishView{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       NormalizePrice(d.Price),
	}
}

func GetDishes(ctx context.Context, submenuId string) ([]*DishView, error) {

	key := utils.ListDishesKeyFor(submenuId)
	cached, hit, err := utils.RetrieveCachedList[DishView](key)
	if err != nil {
		cacheWarn("GetDishes", key, err)
	}
	if !hit {
		db := config.GetDB()
		var dishes []*Dish
		if err := db.WithContext(ctx).Where("submenu_id = ?", submenuId).Order("id").
			Find(&dishes).Error; err != nil {
			return nil, err
		}
		cached = make([]*DishView, 0, len(dishes))
		for _, d := range dishes {
			cached = append(cached, d.view())
		}
		if err := utils.StoreCached(key, cached); err != nil {
			cacheWarn("GetDishes", key, err)
		}
	}

	discounts := loadDiscountTable()
	for _, v := range cached {
		v.enrich(discounts)
	}
	return cached, nil
}

func GetDish(ctx context.Context, id string) (*DishView, error) {

	key := utils.DishKey(id)
	cached, hit, err := utils.RetrieveCached[DishView](key)
	if err != nil {
		cacheWarn("GetDish", key, err)
	}
	if !hit {
		dish, err := utils.FetchModel[Dish](ctx, id)
		if err != nil {
			return nil, err
		}
		cached = dish.view()
		if err := utils.StoreCached(key, cached); err != nil {
			cacheWarn("GetDish", key, err)
		}
	}

	cached.enrich(loadDiscountTable())
	return cached, nil
}

// validate input for both create & update. (exceptId = "" for create)
func (input *NewDish) validate(ctx context.Context, exceptId string) error {
	if err := ValidatePrice(input.Price); err != nil {
		return err
	}
	return utils.ValidateUniqueTitle[Dish](ctx, input.Title, exceptId)
}

func CreateDish(ctx context.Context, submenuId string, input *NewDish) (*DishView, error) {

	submenu, err := utils.FetchModel[Submenu](ctx, submenuId)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	dish := Dish{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		SubmenuId:   submenuId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dish).Error; err != nil {
			return err
		}
		keys, prefixes := utils.DishInvalidation(dish.ID, submenuId, submenu.MenuId)
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
	if err != nil {
		return nil, err
	}

	view := dish.view()
	view.enrich(loadDiscountTable())
	return view, nil
}

func UpdateDish(ctx context.Context, id string, input *NewDish) (*DishView, error) {

	dish, err := utils.FetchModel[Dish](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	submenu, err := utils.FetchModel[Submenu](ctx, dish.SubmenuId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&dish).Updates(map[string]interface{}{
			"Title":       input.Title,
			"Description": input.Description,
			"Price":       input.Price,
		}).Error; err != nil {
			return err
		}
		keys, prefixes := utils.DishInvalidation(id, dish.SubmenuId, submenu.MenuId)
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
	if err != nil {
		return nil, err
	}

	view := dish.view()
	view.enrich(loadDiscountTable())
	return view, nil
}

func DeleteDish(ctx context.Context, id string) error {

	dish, err := utils.FetchModel[Dish](ctx, id)
	if err != nil {
		return err
	}
	submenu, err := utils.FetchModel[Submenu](ctx, dish.SubmenuId)
	if err != nil {
		return err
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&dish).Error; err != nil {
			return err
		}
		keys, prefixes := utils.DishInvalidation(id, dish.SubmenuId, submenu.MenuId)
		return EnqueueCacheInvalidation(ctx, tx, keys, prefixes)
	})
}
