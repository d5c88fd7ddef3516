package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/menu_backend/utils"
	"gorm.io/gorm"
)

// CacheInvalidationRecord is a transactional-outbox row naming the cache keys
// a committed write has made stale. Rows are written inside the caller's DB
// transaction and drained asynchronously by the invalidation processor, so an
// invalidation is never lost to a crash between commit and cache delete.
type CacheInvalidationRecord struct {
	ID            int        `gorm:"primary_key" json:"id"`
	KeysJSON      []byte     `gorm:"type:blob" json:"keys_json"`
	PrefixesJSON  []byte     `gorm:"type:blob" json:"prefixes_json"`
	IsProcessed   bool       `gorm:"index;not null" json:"is_processed"`
	LockedAt      *time.Time `gorm:"index" json:"locked_at"`
	LockedBy      *string    `gorm:"size:100" json:"locked_by"`
	LastError     *string    `gorm:"type:text" json:"last_error"`
	ProcessedAt   *time.Time `gorm:"index" json:"processed_at"`
	CorrelationId string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// EnqueueCacheInvalidation writes the record inside the caller's transaction.
// Deletion from Redis happens after commit, at-least-once.
func EnqueueCacheInvalidation(ctx context.Context, tx *gorm.DB, keys []string, prefixes []string) error {
	if len(keys) == 0 && len(prefixes) == 0 {
		return nil
	}
	keysInByte, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	prefixesInByte, err := json.Marshal(prefixes)
	if err != nil {
		return err
	}
	record := CacheInvalidationRecord{
		KeysJSON:      keysInByte,
		PrefixesJSON:  prefixesInByte,
		IsProcessed:   false,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func (r *CacheInvalidationRecord) KeyList() []string {
	var keys []string
	if len(r.KeysJSON) > 0 {
		_ = json.Unmarshal(r.KeysJSON, &keys)
	}
	return keys
}

func (r *CacheInvalidationRecord) PrefixList() []string {
	var prefixes []string
	if len(r.PrefixesJSON) > 0 {
		_ = json.Unmarshal(r.PrefixesJSON, &prefixes)
	}
	return prefixes
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
