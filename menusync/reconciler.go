package menusync

import (
	"context"

	"github.com/mmdatafocus/menu_backend/models"
	"github.com/mmdatafocus/menu_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("menu-sync")

// Engine reconciles the relational store against the latest spreadsheet
// snapshot, using the saved snapshot from the previous run as the diff
// baseline. Each sub-step commits on its own; a failure aborts the remaining
// steps but leaves earlier commits in place.
type Engine struct {
	Store  EntityStore
	Cache  SnapshotCache
	Logger *logrus.Logger
}

func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		Store:  NewEntityStore(),
		Cache:  NewSnapshotCache(),
		Logger: logger,
	}
}

// Run applies one reconciliation pass for the given parsed snapshot.
// Menu reconciliation completes before submenu, submenu before dish, so
// child inserts always find their parent rows committed.
func (e *Engine) Run(ctx context.Context, snap *Snapshot) (models.SyncRunStats, error) {
	ctx, span := tracer.Start(ctx, "menusync.Run")
	defer span.End()

	stats := models.SyncRunStats{}

	saved, savedExists, err := e.Cache.LoadSnapshot(ctx)
	if err != nil {
		// degrade to "no saved snapshot"; the db-derived baseline below keeps
		// a cache outage from ever reading as a mass delete
		e.warn("Run", "saved snapshot unreadable", err)
		saved, savedExists = nil, false
	}

	hasMenus, err := e.Store.HasMenus(ctx)
	if err != nil {
		return stats, err
	}

	// cold store: bulk insert the whole snapshot and record it as the baseline
	if !hasMenus {
		if snap.IsEmpty() {
			return stats, nil
		}
		if err := e.bootstrap(ctx, snap, &stats); err != nil {
			return stats, err
		}
		return stats, nil
	}

	// populated store, empty workbook: clear everything
	if snap.IsEmpty() {
		if err := e.wipe(ctx, &stats); err != nil {
			return stats, err
		}
		return stats, nil
	}

	// no baseline to diff against (first run over a pre-populated store, or
	// cache loss): rebuild it from the store so this run stays convergent
	if !savedExists {
		saved, err = e.snapshotFromStore(ctx)
		if err != nil {
			return stats, err
		}
	}

	// pre-update hook: refresh the baseline's content fields in place from
	// the new parse, keeping identifiers stable; skipped on length mismatch
	refreshSavedSnapshot(saved, snap)

	if err := e.reconcileMenus(ctx, saved, &stats); err != nil {
		return stats, err
	}
	if err := e.reconcileSubmenus(ctx, saved, &stats); err != nil {
		return stats, err
	}
	if err := e.reconcileDishes(ctx, saved, &stats); err != nil {
		return stats, err
	}

	if err := e.Cache.SaveSnapshot(ctx, saved); err != nil {
		return stats, err
	}
	return stats, nil
}

func (e *Engine) bootstrap(ctx context.Context, snap *Snapshot, stats *models.SyncRunStats) error {
	if err := e.Store.InsertMenus(ctx, snap.Menus); err != nil {
		return err
	}
	stats.MenusInserted = len(snap.Menus)
	if err := e.Store.InsertSubmenus(ctx, snap.Submenus); err != nil {
		return err
	}
	stats.SubmenusInserted = len(snap.Submenus)
	if err := e.Store.InsertDishes(ctx, snap.Dishes); err != nil {
		return err
	}
	stats.DishesInserted = len(snap.Dishes)

	if err := e.Cache.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	e.invalidateAllViews(ctx)
	return nil
}

func (e *Engine) wipe(ctx context.Context, stats *models.SyncRunStats) error {
	menus, err := e.Store.ListMenus(ctx)
	if err != nil {
		return err
	}
	submenus, err := e.Store.ListSubmenus(ctx)
	if err != nil {
		return err
	}
	dishes, err := e.Store.ListDishes(ctx)
	if err != nil {
		return err
	}

	if err := e.Store.DeleteAll(ctx); err != nil {
		return err
	}
	stats.MenusDeleted = len(menus)
	stats.SubmenusDeleted = len(submenus)
	stats.DishesDeleted = len(dishes)

	if err := e.Cache.DeleteSnapshot(ctx); err != nil {
		e.warn("wipe", "snapshot keys not removed", err)
	}
	e.invalidateAllViews(ctx)
	return nil
}

// snapshotFromStore derives a baseline from the current rows, ids included.
func (e *Engine) snapshotFromStore(ctx context.Context) (*Snapshot, error) {
	menus, err := e.Store.ListMenus(ctx)
	if err != nil {
		return nil, err
	}
	submenus, err := e.Store.ListSubmenus(ctx)
	if err != nil {
		return nil, err
	}
	dishes, err := e.Store.ListDishes(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	for _, m := range menus {
		snap.Menus = append(snap.Menus, MenuRecord{Id: m.ID, Title: m.Title, Description: m.Description})
	}
	for _, s := range submenus {
		snap.Submenus = append(snap.Submenus, SubmenuRecord{Id: s.ID, Title: s.Title, Description: s.Description, MenuId: s.MenuId})
	}
	for _, d := range dishes {
		snap.Dishes = append(snap.Dishes, DishRecord{Id: d.ID, Title: d.Title, Description: d.Description, Price: d.Price, SubmenuId: d.SubmenuId})
	}
	return snap, nil
}

// refreshSavedSnapshot overwrites the baseline's content fields from the new
// parse by positional index, per list, when the lengths line up. Identifiers
// and parent references stay as they are. A length mismatch leaves the list
// alone and defers to the structural diff.
func refreshSavedSnapshot(saved *Snapshot, snap *Snapshot) {
	if len(saved.Menus) == len(snap.Menus) {
		for i := range saved.Menus {
			saved.Menus[i].Title = snap.Menus[i].Title
			saved.Menus[i].Description = snap.Menus[i].Description
		}
	}
	if len(saved.Submenus) == len(snap.Submenus) {
		for i := range saved.Submenus {
			saved.Submenus[i].Title = snap.Submenus[i].Title
			saved.Submenus[i].Description = snap.Submenus[i].Description
		}
	}
	if len(saved.Dishes) == len(snap.Dishes) {
		for i := range saved.Dishes {
			saved.Dishes[i].Title = snap.Dishes[i].Title
			saved.Dishes[i].Description = snap.Dishes[i].Description
			saved.Dishes[i].Price = snap.Dishes[i].Price
		}
	}
}

func (e *Engine) reconcileMenus(ctx context.Context, saved *Snapshot, stats *models.SyncRunStats) error {
	menus, err := e.Store.ListMenus(ctx)
	if err != nil {
		return err
	}

	switch {
	case len(menus) > len(saved.Menus):
		for _, m := range menus {
			if menuPresent(saved.Menus, m) {
				continue
			}
			if err := e.Store.DeleteMenu(ctx, m.ID); err != nil {
				return err
			}
			stats.MenusDeleted++
			keys, prefixes := utils.MenuInvalidation(m.ID)
			e.invalidate(ctx, keys, prefixes)
		}
	case len(menus) < len(saved.Menus):
		for _, r := range saved.Menus {
			if menuRowPresent(menus, r) {
				continue
			}
			if err := e.Store.InsertMenus(ctx, []MenuRecord{r}); err != nil {
				return err
			}
			stats.MenusInserted++
			keys, prefixes := utils.MenuInvalidation(r.Id)
			e.invalidate(ctx, keys, prefixes)
		}
	default:
		if len(saved.Menus) == 0 {
			return nil
		}
		savedById := make(map[string]MenuRecord, len(saved.Menus))
		for _, r := range saved.Menus {
			savedById[r.Id] = r
		}
		for _, m := range menus {
			r, ok := savedById[m.ID]
			if !ok || r.sameContent(m) {
				continue
			}
			if err := e.Store.UpdateMenu(ctx, m.ID, r.Title, r.Description); err != nil {
				return err
			}
			stats.MenusUpdated++
			keys, prefixes := utils.MenuInvalidation(m.ID)
			e.invalidate(ctx, keys, prefixes)
		}
	}
	return nil
}

func (e *Engine) reconcileSubmenus(ctx context.Context, saved *Snapshot, stats *models.SyncRunStats) error {
	submenus, err := e.Store.ListSubmenus(ctx)
	if err != nil {
		return err
	}

	switch {
	case len(submenus) > len(saved.Submenus):
		for _, s := range submenus {
			if submenuPresent(saved.Submenus, s) {
				continue
			}
			if err := e.Store.DeleteSubmenu(ctx, s.ID); err != nil {
				return err
			}
			stats.SubmenusDeleted++
			keys, prefixes := utils.SubmenuInvalidation(s.ID, s.MenuId)
			e.invalidate(ctx, keys, prefixes)
		}
	case len(submenus) < len(saved.Submenus):
		for _, r := range saved.Submenus {
			if submenuRowPresent(submenus, r) {
				continue
			}
			if err := e.Store.InsertSubmenus(ctx, []SubmenuRecord{r}); err != nil {
				return err
			}
			stats.SubmenusInserted++
			keys, prefixes := utils.SubmenuInvalidation(r.Id, r.MenuId)
			e.invalidate(ctx, keys, prefixes)
		}
	default:
		if len(saved.Submenus) == 0 {
			return nil
		}
		savedById := make(map[string]SubmenuRecord, len(saved.Submenus))
		for _, r := range saved.Submenus {
			savedById[r.Id] = r
		}
		for _, s := range submenus {
			r, ok := savedById[s.ID]
			if !ok || r.sameContent(s) {
				continue
			}
			if err := e.Store.UpdateSubmenu(ctx, s.ID, r.Title, r.Description); err != nil {
				return err
			}
			stats.SubmenusUpdated++
			keys, prefixes := utils.SubmenuInvalidation(s.ID, s.MenuId)
			e.invalidate(ctx, keys, prefixes)
		}
	}
	return nil
}

func (e *Engine) reconcileDishes(ctx context.Context, saved *Snapshot, stats *models.SyncRunStats) error {
	dishes, err := e.Store.ListDishes(ctx)
	if err != nil {
		return err
	}

	// submenu reconciliation has already committed, so this map is current
	submenus, err := e.Store.ListSubmenus(ctx)
	if err != nil {
		return err
	}
	menuIdBySubmenu := make(map[string]string, len(submenus))
	for _, s := range submenus {
		menuIdBySubmenu[s.ID] = s.MenuId
	}

	switch {
	case len(dishes) > len(saved.Dishes):
		for _, d := range dishes {
			if dishPresent(saved.Dishes, d) {
				continue
			}
			if err := e.Store.DeleteDish(ctx, d.ID); err != nil {
				return err
			}
			stats.DishesDeleted++
			keys, prefixes := utils.DishInvalidation(d.ID, d.SubmenuId, menuIdBySubmenu[d.SubmenuId])
			e.invalidate(ctx, keys, prefixes)
		}
	case len(dishes) < len(saved.Dishes):
		for _, r := range saved.Dishes {
			if dishRowPresent(dishes, r) {
				continue
			}
			if err := e.Store.InsertDishes(ctx, []DishRecord{r}); err != nil {
				return err
			}
			stats.DishesInserted++
			keys, prefixes := utils.DishInvalidation(r.Id, r.SubmenuId, menuIdBySubmenu[r.SubmenuId])
			e.invalidate(ctx, keys, prefixes)
		}
	default:
		if len(saved.Dishes) == 0 {
			return nil
		}
		savedById := make(map[string]DishRecord, len(saved.Dishes))
		for _, r := range saved.Dishes {
			savedById[r.Id] = r
		}
		for _, d := range dishes {
			r, ok := savedById[d.ID]
			if !ok || r.sameContent(d) {
				continue
			}
			if err := e.Store.UpdateDish(ctx, d.ID, r.Title, r.Description, r.Price); err != nil {
				return err
			}
			stats.DishesUpdated++
			keys, prefixes := utils.DishInvalidation(d.ID, d.SubmenuId, menuIdBySubmenu[d.SubmenuId])
			e.invalidate(ctx, keys, prefixes)
		}
	}
	return nil
}

/* structural presence, natural fields only */

func menuPresent(records []MenuRecord, m *models.Menu) bool {
	for _, r := range records {
		if r.sameContent(m) {
			return true
		}
	}
	return false
}

func menuRowPresent(menus []*models.Menu, r MenuRecord) bool {
	for _, m := range menus {
		if r.sameContent(m) {
			return true
		}
	}
	return false
}

func submenuPresent(records []SubmenuRecord, s *models.Submenu) bool {
	for _, r := range records {
		if r.sameContent(s) {
			return true
		}
	}
	return false
}

func submenuRowPresent(submenus []*models.Submenu, r SubmenuRecord) bool {
	for _, s := range submenus {
		if r.sameContent(s) {
			return true
		}
	}
	return false
}

func dishPresent(records []DishRecord, d *models.Dish) bool {
	for _, r := range records {
		if r.sameContent(d) {
			return true
		}
	}
	return false
}

func dishRowPresent(dishes []*models.Dish, r DishRecord) bool {
	for _, d := range dishes {
		if r.sameContent(d) {
			return true
		}
	}
	return false
}

// invalidate drops stale view keys best-effort: a cache outage must not abort
// the run, it only widens the staleness window.
func (e *Engine) invalidate(ctx context.Context, keys []string, prefixes []string) {
	if err := e.Cache.RemoveKeys(ctx, keys...); err != nil {
		e.warn("invalidate", "keys not removed", err)
	}
	for _, prefix := range prefixes {
		if err := e.Cache.RemoveByPrefix(ctx, prefix); err != nil {
			e.warn("invalidate", "prefix not removed: "+prefix, err)
		}
	}
}

func (e *Engine) invalidateAllViews(ctx context.Context) {
	if err := e.Cache.RemoveKeys(ctx, utils.ListMenusKey, utils.NestedMenusKey); err != nil {
		e.warn("invalidateAllViews", "keys not removed", err)
	}
	for _, prefix := range []string{utils.ListSubmenusKey, utils.ListDishesKey, "menu_", "submenu_", "dish_"} {
		if err := e.Cache.RemoveByPrefix(ctx, prefix); err != nil {
			e.warn("invalidateAllViews", "prefix not removed: "+prefix, err)
		}
	}
}

func (e *Engine) warn(funcName string, context string, err error) {
	if e.Logger == nil {
		return
	}
	e.Logger.WithFields(logrus.Fields{
		"module":   "menusync",
		"funcName": funcName,
		"context":  context,
	}).Warn(err.Error())
}
