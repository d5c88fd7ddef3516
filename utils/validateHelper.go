package utils

import (
	"context"

	"github.com/mmdatafocus/menu_backend/config"
)

// check if id exists, return ErrorRecordNotFound when absent
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}

// ValidateUniqueTitle checks title uniqueness across the whole table
// (exceptId = "" for create). Returns ErrorDuplicateTitle on collision.
func ValidateUniqueTitle[T any](ctx context.Context, title string, exceptId string) error {
	var count int64
	var err error
	if exceptId == "" {
		count, err = ResourceCountWhere[T](ctx, "title = ?", title)
	} else {
		count, err = ResourceCountWhere[T](ctx, "title = ? AND NOT id = ?", title, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrorDuplicateTitle
	}
	return nil
}

// count records matching condition
func ResourceCountWhere[T any](ctx context.Context, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
