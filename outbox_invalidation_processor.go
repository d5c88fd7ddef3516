package main

import (
	"context"
	"time"

	"github.com/mmdatafocus/menu_backend/config"
	"github.com/mmdatafocus/menu_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvalidationProcessor drains the cache invalidation outbox. Rows are
// claimed with SKIP LOCKED so multiple replicas can run it concurrently;
// a claim that outlives the lock TTL counts as abandoned and is re-claimed.
// Redis deletes are idempotent, so at-least-once delivery is safe.
type InvalidationProcessor struct {
	DB        *gorm.DB
	Logger    *logrus.Logger
	WorkerID  string
	BatchSize int
	Interval  time.Duration
	LockTTL   time.Duration
}

func NewInvalidationProcessor(db *gorm.DB, logger *logrus.Logger) *InvalidationProcessor {
	return &InvalidationProcessor{
		DB:        db,
		Logger:    logger,
		WorkerID:  "invalidator-" + time.Now().Format("20060102-150405.000"),
		BatchSize: 50,
		Interval:  2 * time.Second,
		LockTTL:   30 * time.Second,
	}
}

func (p *InvalidationProcessor) Run(ctx context.Context) {
	if p == nil || p.DB == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.processOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.Interval):
		}
	}
}

func (p *InvalidationProcessor) processOnce(ctx context.Context) {
	now := time.Now().UTC()
	staleBefore := now.Add(-p.LockTTL)

	var claimed []models.CacheInvalidationRecord
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("is_processed = 0").
			Where("(locked_at IS NULL OR locked_at <= ?)", staleBefore).
			Order("id ASC").
			Limit(p.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		for i := range claimed {
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &p.WorkerID
			if err := tx.Model(&models.CacheInvalidationRecord{}).
				Where("id = ?", claimed[i].ID).
				Updates(map[string]interface{}{
					"locked_at": claimed[i].LockedAt,
					"locked_by": claimed[i].LockedBy,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || len(claimed) == 0 {
		return
	}

	for _, rec := range claimed {
		if err := p.applyRecord(ctx, &rec); err != nil {
			errMsg := err.Error()
			_ = p.DB.WithContext(ctx).Model(&models.CacheInvalidationRecord{}).
				Where("id = ?", rec.ID).
				Updates(map[string]interface{}{
					"last_error": &errMsg,
					"locked_at":  nil,
					"locked_by":  nil,
				}).Error
			if p.Logger != nil {
				p.Logger.WithFields(logrus.Fields{
					"field":          "InvalidationProcessor",
					"record_id":      rec.ID,
					"correlation_id": rec.CorrelationId,
				}).Error("cache invalidation failed: " + errMsg)
			}
			continue
		}

		processedAt := time.Now().UTC()
		_ = p.DB.WithContext(ctx).Model(&models.CacheInvalidationRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"is_processed": true,
				"processed_at": &processedAt,
				"locked_at":    nil,
				"locked_by":    nil,
			}).Error
	}
}

// applyRecord drops the record's keys and prefix scans from Redis. Any
// failure leaves the row unprocessed for a later retry.
func (p *InvalidationProcessor) applyRecord(ctx context.Context, rec *models.CacheInvalidationRecord) error {
	if keys := rec.KeyList(); len(keys) > 0 {
		if err := config.RemoveRedisKey(keys...); err != nil {
			return err
		}
	}
	for _, prefix := range rec.PrefixList() {
		if err := config.RemoveRedisKeysByPrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
