package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/menu_backend/config"
	"github.com/mmdatafocus/menu_backend/utils"
)

const (
	SyncRunStatusRunning = "RUNNING"
	SyncRunStatusSuccess = "SUCCESS"
	SyncRunStatusFailed  = "FAILED"
)

// MenuSyncRun records one reconciliation run of the spreadsheet sync job.
// Failed runs stay recorded; the scheduler does not retry them early.
type MenuSyncRun struct {
	ID            int        `gorm:"primary_key" json:"id"`
	Status        string     `gorm:"size:20;index;not null" json:"status"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	StatsJSON     []byte     `gorm:"type:blob" json:"stats_json"`
	ErrorText     *string    `gorm:"type:text" json:"error_text"`
	CorrelationId string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncRunStats counts the writes one reconciliation run applied per entity type.
type SyncRunStats struct {
	MenusInserted    int `json:"menus_inserted"`
	MenusUpdated     int `json:"menus_updated"`
	MenusDeleted     int `json:"menus_deleted"`
	SubmenusInserted int `json:"submenus_inserted"`
	SubmenusUpdated  int `json:"submenus_updated"`
	SubmenusDeleted  int `json:"submenus_deleted"`
	DishesInserted   int `json:"dishes_inserted"`
	DishesUpdated    int `json:"dishes_updated"`
	DishesDeleted    int `json:"dishes_deleted"`
}

func (s SyncRunStats) Total() int {
	return s.MenusInserted + s.MenusUpdated + s.MenusDeleted +
		s.SubmenusInserted + s.SubmenusUpdated + s.SubmenusDeleted +
		s.DishesInserted + s.DishesUpdated + s.DishesDeleted
}

func StartMenuSyncRun(ctx context.Context) (*MenuSyncRun, error) {
	now := time.Now().UTC()
	run := MenuSyncRun{
		Status:        SyncRunStatusRunning,
		StartedAt:     &now,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	db := config.GetDB()
	if db == nil {
		return &run, nil
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func FinishMenuSyncRun(ctx context.Context, run *MenuSyncRun, stats SyncRunStats, runErr error) error {
	db := config.GetDB()
	if db == nil || run == nil || run.ID == 0 {
		return nil
	}

	finishedAt := time.Now().UTC()
	var durationMs int64
	if run.StartedAt != nil {
		durationMs = finishedAt.Sub(*run.StartedAt).Milliseconds()
	}
	status := SyncRunStatusSuccess
	var errorText *string
	if runErr != nil {
		status = SyncRunStatusFailed
		msg := runErr.Error()
		errorText = &msg
	}
	statsJSON, _ := json.Marshal(stats)

	return db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":      status,
		"finished_at": finishedAt,
		"duration_ms": durationMs,
		"stats_json":  statsJSON,
		"error_text":  errorText,
	}).Error
}

func GetMenuSyncRuns(ctx context.Context, limit int) ([]*MenuSyncRun, error) {
	limit = clampRunLimit(limit)
	db := config.GetDB()
	var runs []*MenuSyncRun
	err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// clampRunLimit keeps page sizes between the 20-row default and a 100-row cap.
func clampRunLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func GetMenuSyncRun(ctx context.Context, id int) (*MenuSyncRun, error) {
	db := config.GetDB()
	var run MenuSyncRun
	if err := db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &run, nil
}
