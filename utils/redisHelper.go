package utils

import (
	"github.com/mmdatafocus/menu_backend/config"
)

/* Redis cache-aside helpers */

// Menu-app keys carry no expiry; they live until explicitly invalidated.

// RetrieveCached reads a cached value.
// Returns (nil, false) on a miss; a cache error is reported so the caller can
// degrade it to a miss.
func RetrieveCached[T any](key string) (*T, bool, error) {
	var result T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	return &result, true, nil
}

// RetrieveCachedList reads a cached list view.
func RetrieveCachedList[T any](key string) ([]*T, bool, error) {
	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	return result, true, nil
}

func StoreCached(key string, obj any) error {
	return config.SetRedisObject(key, obj, 0)
}

func RemoveCached(keys ...string) error {
	return config.RemoveRedisKey(keys...)
}
