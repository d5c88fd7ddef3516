package menusync

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "Menu.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestParseWorkbook_RowHeuristics(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"1", "Drinks", "cold and hot"},
		{"", "1", "Coffee", "espresso based"},
		{"", "", "1", "Latte", "with milk", "3,50", "10"},
		{"", "", "2", "Americano", "black", "2.80"},
		{"notes", "", "", "ignore me"},
		{"2", "Food", "savoury"},
		{"", "1", "Burgers", "grilled"},
		{"", "", "1", "Cheeseburger", "classic", "7.999"},
	})

	snap, discounts, err := ParseWorkbook(path)
	if err != nil {
		t.Fatalf("ParseWorkbook error: %v", err)
	}

	if len(snap.Menus) != 2 {
		t.Fatalf("expected 2 menus, got %d", len(snap.Menus))
	}
	if len(snap.Submenus) != 2 {
		t.Fatalf("expected 2 submenus, got %d", len(snap.Submenus))
	}
	if len(snap.Dishes) != 3 {
		t.Fatalf("expected 3 dishes, got %d", len(snap.Dishes))
	}

	// title order, not sheet order
	if snap.Menus[0].Title != "Drinks" || snap.Menus[1].Title != "Food" {
		t.Fatalf("menus out of order: %q, %q", snap.Menus[0].Title, snap.Menus[1].Title)
	}
	if snap.Dishes[0].Title != "Americano" {
		t.Fatalf("dishes out of order: %q first", snap.Dishes[0].Title)
	}

	// parents track the preceding menu/submenu row
	var burgers SubmenuRecord
	for _, s := range snap.Submenus {
		if s.Title == "Burgers" {
			burgers = s
		}
	}
	var food MenuRecord
	for _, m := range snap.Menus {
		if m.Title == "Food" {
			food = m
		}
	}
	if burgers.MenuId != food.Id {
		t.Fatalf("submenu bound to wrong menu: %q vs %q", burgers.MenuId, food.Id)
	}

	for _, d := range snap.Dishes {
		switch d.Title {
		case "Latte":
			// decimal-comma cells are accepted and rendered to two places
			if d.Price != "3.50" {
				t.Fatalf("Latte price = %q", d.Price)
			}
		case "Cheeseburger":
			if d.Price != "8.00" {
				t.Fatalf("Cheeseburger price = %q", d.Price)
			}
		}
	}

	if len(discounts) != 1 || discounts[0].Title != "Latte" || discounts[0].Discount != "10" {
		t.Fatalf("unexpected discount table: %+v", discounts)
	}
}

func TestParseWorkbook_FreshIdentifiersPerParse(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"1", "Drinks", "cold and hot"},
		{"", "1", "Coffee", "espresso based"},
		{"", "", "1", "Latte", "with milk", "3.00"},
	})

	first, _, err := ParseWorkbook(path)
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, _, err := ParseWorkbook(path)
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if first.Menus[0].Id == second.Menus[0].Id {
		t.Fatal("menu identifier reused across parses")
	}
	if second.Submenus[0].MenuId != second.Menus[0].Id {
		t.Fatal("submenu parent not rebound to the new menu identifier")
	}
}

func TestParseWorkbook_ChildRowsBeforeParentAreSkipped(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"", "1", "Orphan submenu", "no menu yet"},
		{"", "", "1", "Orphan dish", "no submenu yet", "1.00"},
		{"1", "Drinks", "cold and hot"},
	})

	snap, _, err := ParseWorkbook(path)
	if err != nil {
		t.Fatalf("ParseWorkbook error: %v", err)
	}
	if len(snap.Menus) != 1 || len(snap.Submenus) != 0 || len(snap.Dishes) != 0 {
		t.Fatalf("orphan rows not skipped: %d/%d/%d", len(snap.Menus), len(snap.Submenus), len(snap.Dishes))
	}
}

func TestParseWorkbook_MissingFile(t *testing.T) {
	_, _, err := ParseWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"))
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
}
