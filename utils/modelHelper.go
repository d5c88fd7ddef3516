package utils

import (
	"context"

	"github.com/mmdatafocus/menu_backend/config"
)

/* DB fetching */

// fetch model from db by id
// (may return ErrorRecordNotFound)
func FetchModel[T any](ctx context.Context, id string, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, "id = ?", id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}
