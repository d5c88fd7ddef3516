package menusync

import (
	"context"
	"strings"
	"testing"

	"github.com/mmdatafocus/menu_backend/models"
)

// NOTE: These tests are intentionally DB-free. The fakes below stand in for
// gorm and Redis; full MySQL+Redis integration runs belong in an environment
// that can start docker.

type fakeStore struct {
	menus    []*models.Menu
	submenus []*models.Submenu
	dishes   []*models.Dish
}

func (f *fakeStore) HasMenus(ctx context.Context) (bool, error) {
	return len(f.menus) > 0, nil
}

func (f *fakeStore) ListMenus(ctx context.Context) ([]*models.Menu, error) {
	return append([]*models.Menu(nil), f.menus...), nil
}

func (f *fakeStore) ListSubmenus(ctx context.Context) ([]*models.Submenu, error) {
	return append([]*models.Submenu(nil), f.submenus...), nil
}

func (f *fakeStore) ListDishes(ctx context.Context) ([]*models.Dish, error) {
	return append([]*models.Dish(nil), f.dishes...), nil
}

func (f *fakeStore) InsertMenus(ctx context.Context, records []MenuRecord) error {
	for _, r := range records {
		f.menus = append(f.menus, &models.Menu{ID: r.Id, Title: r.Title, Description: r.Description})
	}
	return nil
}

func (f *fakeStore) InsertSubmenus(ctx context.Context, records []SubmenuRecord) error {
	for _, r := range records {
		f.submenus = append(f.submenus, &models.Submenu{ID: r.Id, Title: r.Title, Description: r.Description, MenuId: r.MenuId})
	}
	return nil
}

func (f *fakeStore) InsertDishes(ctx context.Context, records []DishRecord) error {
	for _, r := range records {
		f.dishes = append(f.dishes, &models.Dish{ID: r.Id, Title: r.Title, Description: r.Description, Price: r.Price, SubmenuId: r.SubmenuId})
	}
	return nil
}

func (f *fakeStore) DeleteMenu(ctx context.Context, id string) error {
	out := f.menus[:0]
	for _, m := range f.menus {
		if m.ID != id {
			out = append(out, m)
		}
	}
	f.menus = out
	// FK cascade
	var orphaned []string
	for _, s := range f.submenus {
		if s.MenuId == id {
			orphaned = append(orphaned, s.ID)
		}
	}
	for _, sid := range orphaned {
		_ = f.DeleteSubmenu(ctx, sid)
	}
	return nil
}

func (f *fakeStore) DeleteSubmenu(ctx context.Context, id string) error {
	out := f.submenus[:0]
	for _, s := range f.submenus {
		if s.ID != id {
			out = append(out, s)
		}
	}
	f.submenus = out
	dishes := f.dishes[:0]
	for _, d := range f.dishes {
		if d.SubmenuId != id {
			dishes = append(dishes, d)
		}
	}
	f.dishes = dishes
	return nil
}

func (f *fakeStore) DeleteDish(ctx context.Context, id string) error {
	out := f.dishes[:0]
	for _, d := range f.dishes {
		if d.ID != id {
			out = append(out, d)
		}
	}
	f.dishes = out
	return nil
}

func (f *fakeStore) UpdateMenu(ctx context.Context, id string, title string, description string) error {
	for _, m := range f.menus {
		if m.ID == id {
			m.Title, m.Description = title, description
		}
	}
	return nil
}

func (f *fakeStore) UpdateSubmenu(ctx context.Context, id string, title string, description string) error {
	for _, s := range f.submenus {
		if s.ID == id {
			s.Title, s.Description = title, description
		}
	}
	return nil
}

func (f *fakeStore) UpdateDish(ctx context.Context, id string, title string, description string, price string) error {
	for _, d := range f.dishes {
		if d.ID == id {
			d.Title, d.Description, d.Price = title, description, price
		}
	}
	return nil
}

func (f *fakeStore) DeleteAll(ctx context.Context) error {
	f.dishes = nil
	f.submenus = nil
	f.menus = nil
	return nil
}

type fakeCache struct {
	saved          *Snapshot
	removedKeys    []string
	removedPrefix  []string
	snapshotWrites int
}

func (f *fakeCache) LoadSnapshot(ctx context.Context) (*Snapshot, bool, error) {
	if f.saved == nil {
		return nil, false, nil
	}
	return cloneSnapshot(f.saved), true, nil
}

func (f *fakeCache) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	f.saved = cloneSnapshot(snap)
	f.snapshotWrites++
	return nil
}

func (f *fakeCache) DeleteSnapshot(ctx context.Context) error {
	f.saved = nil
	return nil
}

func (f *fakeCache) RemoveKeys(ctx context.Context, keys ...string) error {
	f.removedKeys = append(f.removedKeys, keys...)
	return nil
}

func (f *fakeCache) RemoveByPrefix(ctx context.Context, prefix string) error {
	f.removedPrefix = append(f.removedPrefix, prefix)
	return nil
}

func cloneSnapshot(s *Snapshot) *Snapshot {
	out := &Snapshot{}
	out.Menus = append(out.Menus, s.Menus...)
	out.Submenus = append(out.Submenus, s.Submenus...)
	out.Dishes = append(out.Dishes, s.Dishes...)
	return out
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Menus: []MenuRecord{
			{Id: "m1", Title: "Drinks", Description: "cold and hot"},
		},
		Submenus: []SubmenuRecord{
			{Id: "s1", Title: "Coffee", Description: "espresso based", MenuId: "m1"},
		},
		Dishes: []DishRecord{
			{Id: "d1", Title: "Flat White", Description: "double shot", Price: "3.50", SubmenuId: "s1"},
			{Id: "d2", Title: "Latte", Description: "with milk", Price: "3.00", SubmenuId: "s1"},
		},
	}
}

func newTestEngine() (*Engine, *fakeStore, *fakeCache) {
	store := &fakeStore{}
	cache := &fakeCache{}
	return &Engine{Store: store, Cache: cache}, store, cache
}

func TestRun_BootstrapInsertsEverything(t *testing.T) {
	e, store, cache := newTestEngine()

	stats, err := e.Run(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.MenusInserted != 1 || stats.SubmenusInserted != 1 || stats.DishesInserted != 2 {
		t.Fatalf("unexpected insert stats: %+v", stats)
	}
	if len(store.menus) != 1 || len(store.submenus) != 1 || len(store.dishes) != 2 {
		t.Fatalf("store not populated: %d/%d/%d", len(store.menus), len(store.submenus), len(store.dishes))
	}
	if cache.saved == nil {
		t.Fatal("saved snapshot not persisted after bootstrap")
	}
	if store.dishes[0].SubmenuId != "s1" {
		t.Fatalf("dish parent not kept: %q", store.dishes[0].SubmenuId)
	}
}

func TestRun_SecondParseWithFreshIdsIsNoop(t *testing.T) {
	e, store, _ := newTestEngine()

	if _, err := e.Run(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("bootstrap error: %v", err)
	}

	// the parser mints new identifiers on every pass; only content matters
	next := testSnapshot()
	next.Menus[0].Id = "m-new"
	next.Submenus[0].Id = "s-new"
	next.Dishes[0].Id = "d-new1"
	next.Dishes[1].Id = "d-new2"

	stats, err := e.Run(context.Background(), next)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if stats.Total() != 0 {
		t.Fatalf("expected noop, got stats %+v", stats)
	}
	if store.menus[0].ID != "m1" {
		t.Fatalf("stored menu id churned: %q", store.menus[0].ID)
	}
}

func TestRun_ContentChangeUpdatesInPlace(t *testing.T) {
	e, store, _ := newTestEngine()

	if _, err := e.Run(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("bootstrap error: %v", err)
	}

	next := testSnapshot()
	next.Dishes[0].Price = "4.00"
	next.Menus[0].Description = "now with smoothies"

	stats, err := e.Run(context.Background(), next)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if stats.DishesUpdated != 1 {
		t.Fatalf("expected one dish update, got %+v", stats)
	}
	if stats.MenusUpdated != 1 {
		t.Fatalf("expected one menu update, got %+v", stats)
	}
	if store.dishes[0].Price != "4.00" {
		t.Fatalf("price not updated: %q", store.dishes[0].Price)
	}
	if store.dishes[0].ID != "d1" {
		t.Fatalf("dish id churned on update: %q", store.dishes[0].ID)
	}
}

func TestRun_RowAddedOutOfBandIsRemoved(t *testing.T) {
	e, store, cache := newTestEngine()

	if _, err := e.Run(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("bootstrap error: %v", err)
	}

	// simulate an API write between runs
	store.menus = append(store.menus, &models.Menu{ID: "m-api", Title: "Secret", Description: "not in the sheet"})

	stats, err := e.Run(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if stats.MenusDeleted != 1 {
		t.Fatalf("expected one menu delete, got %+v", stats)
	}
	if len(store.menus) != 1 || store.menus[0].ID != "m1" {
		t.Fatalf("wrong menu removed: %+v", store.menus)
	}
	if !containsString(cache.removedKeys, "menu_m-api") {
		t.Fatalf("single view key not invalidated: %v", cache.removedKeys)
	}
	if !containsString(cache.removedKeys, "nested_menus") {
		t.Fatalf("nested view key not invalidated: %v", cache.removedKeys)
	}
}

func TestRun_RowDeletedOutOfBandIsReinserted(t *testing.T) {
	e, store, _ := newTestEngine()

	if _, err := e.Run(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("bootstrap error: %v", err)
	}

	_ = store.DeleteDish(context.Background(), "d2")

	stats, err := e.Run(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if stats.DishesInserted != 1 {
		t.Fatalf("expected one dish insert, got %+v", stats)
	}
	if len(store.dishes) != 2 {
		t.Fatalf("dish not restored: %d", len(store.dishes))
	}
	var restored *models.Dish
	for _, d := range store.dishes {
		if d.Title == "Latte" {
			restored = d
		}
	}
	if restored == nil {
		t.Fatal("restored dish missing")
	}
	if restored.ID != "d2" {
		t.Fatalf("restored dish lost its identifier: %q", restored.ID)
	}
}

func TestRun_EmptyWorkbookWipesStore(t *testing.T) {
	e, store, cache := newTestEngine()

	if _, err := e.Run(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("bootstrap error: %v", err)
	}

	stats, err := e.Run(context.Background(), &Snapshot{})
	if err != nil {
		t.Fatalf("wipe run error: %v", err)
	}
	if stats.MenusDeleted != 1 || stats.SubmenusDeleted != 1 || stats.DishesDeleted != 2 {
		t.Fatalf("unexpected wipe stats: %+v", stats)
	}
	if len(store.menus) != 0 || len(store.submenus) != 0 || len(store.dishes) != 0 {
		t.Fatal("store not emptied")
	}
	if cache.saved != nil {
		t.Fatal("saved snapshot survived the wipe")
	}
	if !containsString(cache.removedPrefix, "list_submenus") {
		t.Fatalf("list prefixes not invalidated: %v", cache.removedPrefix)
	}
}

func TestRun_MissingBaselineIsRebuiltFromStore(t *testing.T) {
	e, store, cache := newTestEngine()

	if _, err := e.Run(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("bootstrap error: %v", err)
	}
	// cache loss between runs
	cache.saved = nil

	next := testSnapshot()
	next.Submenus[0].Description = "espresso and filter"

	stats, err := e.Run(context.Background(), next)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if stats.MenusDeleted != 0 || stats.SubmenusDeleted != 0 || stats.DishesDeleted != 0 {
		t.Fatalf("baseline loss must not delete rows: %+v", stats)
	}
	if stats.SubmenusUpdated != 1 {
		t.Fatalf("expected one submenu update, got %+v", stats)
	}
	if store.submenus[0].Description != "espresso and filter" {
		t.Fatalf("submenu content not refreshed: %q", store.submenus[0].Description)
	}
	if cache.saved == nil {
		t.Fatal("baseline not re-persisted")
	}
}

func TestRun_EmptySnapshotOnEmptyStoreIsNoop(t *testing.T) {
	e, _, cache := newTestEngine()

	stats, err := e.Run(context.Background(), &Snapshot{})
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if stats.Total() != 0 {
		t.Fatalf("expected noop, got %+v", stats)
	}
	if cache.snapshotWrites != 0 {
		t.Fatal("snapshot written on noop run")
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func TestSnapshotIsEmpty(t *testing.T) {
	snap := testSnapshot()
	if snap.IsEmpty() {
		t.Fatal("full snapshot reported empty")
	}
	// a sheet missing any one level cannot be applied
	snap.Dishes = nil
	if !snap.IsEmpty() {
		t.Fatal("snapshot without dishes must count as empty")
	}
	if !(&Snapshot{}).IsEmpty() {
		t.Fatal("zero snapshot must count as empty")
	}
}

func TestRefreshSavedSnapshotSkipsOnLengthMismatch(t *testing.T) {
	saved := testSnapshot()
	next := testSnapshot()
	next.Dishes = next.Dishes[:1]
	next.Dishes[0].Price = "9.99"

	refreshSavedSnapshot(saved, next)
	if saved.Dishes[0].Price == "9.99" {
		t.Fatal("dish refresh applied despite length mismatch")
	}
	if !strings.HasPrefix(saved.Dishes[0].Price, "3.") {
		t.Fatalf("baseline price mutated: %q", saved.Dishes[0].Price)
	}
}
