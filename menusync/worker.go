package menusync

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/menu_backend/models"
	"github.com/mmdatafocus/menu_backend/utils"
	"github.com/sirupsen/logrus"
)

const defaultSyncInterval = 15 * time.Second

// Worker drives the periodic spreadsheet reconciliation. Each tick parses
// the workbook and hands the snapshot to the engine; cancellation is only
// honoured between runs, a run in flight always finishes.
type Worker struct {
	Engine   *Engine
	Logger   *logrus.Logger
	Path     string
	Interval time.Duration
}

func NewWorker(logger *logrus.Logger) *Worker {
	return &Worker{
		Engine:   NewEngine(logger),
		Logger:   logger,
		Path:     WorkbookPath(),
		Interval: syncInterval(),
	}
}

func syncInterval() time.Duration {
	if raw := os.Getenv("MENU_SYNC_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultSyncInterval
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.Engine == nil {
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
		w.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.Interval):
		}
	}
}

// runOnce records a sync run row around a single parse + reconcile pass.
// A parse failure fails the run before anything touches the store or the
// saved snapshot.
func (w *Worker) runOnce(ctx context.Context) {
	runCtx := utils.SetCorrelationIdInContext(ctx, uuid.NewString())

	run, err := models.StartMenuSyncRun(runCtx)
	if err != nil {
		w.logError("runOnce", "run row not created", err)
		return
	}

	snap, discounts, err := ParseWorkbook(w.Path)
	if err != nil {
		w.logError("runOnce", "workbook parse failed", err)
		if finErr := models.FinishMenuSyncRun(runCtx, run, models.SyncRunStats{}, err); finErr != nil {
			w.logError("runOnce", "run row not finished", finErr)
		}
		return
	}

	// the discount table is cache-only; losing a write just means reads see
	// the previous table until the next tick
	if err := utils.StoreCached(utils.DishDiscountKey, discounts); err != nil {
		w.logError("runOnce", "discount table not stored", err)
	}

	stats, runErr := w.Engine.Run(runCtx, snap)
	if runErr != nil {
		w.logError("runOnce", "reconciliation failed", runErr)
	}
	if err := models.FinishMenuSyncRun(runCtx, run, stats, runErr); err != nil {
		w.logError("runOnce", "run row not finished", err)
	}

	if w.Logger != nil && runErr == nil {
		w.Logger.WithFields(logrus.Fields{
			"module":   "menusync",
			"funcName": "runOnce",
			"run_id":   run.ID,
			"changes":  stats.Total(),
		}).Info("reconciliation run finished")
	}
}

func (w *Worker) logError(funcName string, context string, err error) {
	if w.Logger == nil {
		return
	}
	w.Logger.WithFields(logrus.Fields{
		"module":   "menusync",
		"funcName": funcName,
		"context":  context,
	}).Error(err.Error())
}
