package menusync

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mmdatafocus/menu_backend/models"
	"github.com/xuri/excelize/v2"
)

const defaultWorkbookPath = "admin/Menu.xlsx"

// WorkbookPath resolves the source workbook location from MENU_XLSX_PATH,
// falling back to the bundled admin sheet.
func WorkbookPath() string {
	if path := os.Getenv("MENU_XLSX_PATH"); path != "" {
		return path
	}
	return defaultWorkbookPath
}

// ParseWorkbook reads the first sheet of the workbook at path into a
// snapshot plus the discount table. Row kind is decided by which of the
// first three columns holds an integer:
//
//	col A integer: menu row, title in B, description in C
//	col B integer: submenu row under the last menu, title in C, description in D
//	col C integer: dish row under the last submenu, title in D, description in E,
//	               price in F, optional discount in G
//
// Anything else is skipped. Every record gets a fresh identifier on each
// parse; the reconciliation engine maps these onto stored rows afterwards.
// An unreadable or sheetless file returns ErrSourceUnreadable.
func ParseWorkbook(path string) (*Snapshot, []models.DishDiscount, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %s", ErrSourceUnreadable, path, err.Error())
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, nil, fmt.Errorf("%w: %s: no active sheet", ErrSourceUnreadable, path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %s", ErrSourceUnreadable, path, err.Error())
	}

	snap := &Snapshot{}
	var discounts []models.DishDiscount
	var menuId, submenuId string

	for _, row := range rows {
		switch {
		case isInteger(cell(row, 0)):
			menuId = uuid.NewString()
			snap.Menus = append(snap.Menus, MenuRecord{
				Id:          menuId,
				Title:       cell(row, 1),
				Description: cell(row, 2),
			})
		case isInteger(cell(row, 1)):
			if menuId == "" {
				continue
			}
			submenuId = uuid.NewString()
			snap.Submenus = append(snap.Submenus, SubmenuRecord{
				Id:          submenuId,
				Title:       cell(row, 2),
				Description: cell(row, 3),
				MenuId:      menuId,
			})
		case isInteger(cell(row, 2)):
			if submenuId == "" {
				continue
			}
			title := cell(row, 3)
			snap.Dishes = append(snap.Dishes, DishRecord{
				Id:          uuid.NewString(),
				Title:       title,
				Description: cell(row, 4),
				Price:       models.NormalizePrice(normalizePriceCell(cell(row, 5))),
				SubmenuId:   submenuId,
			})
			if discount := cell(row, 6); discount != "" {
				discounts = append(discounts, models.DishDiscount{
					Title:    title,
					Discount: discount,
				})
			}
		}
	}

	sortSnapshot(snap)
	return snap, discounts, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isInteger(value string) bool {
	if value == "" {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}

// normalizePriceCell accepts the decimal-comma convention some sheets use.
func normalizePriceCell(price string) string {
	return strings.Replace(price, ",", ".", 1)
}

// sortSnapshot orders each list by title so structural comparison and list
// views see a stable order regardless of sheet layout.
func sortSnapshot(snap *Snapshot) {
	sort.SliceStable(snap.Menus, func(i, j int) bool {
		return snap.Menus[i].Title < snap.Menus[j].Title
	})
	sort.SliceStable(snap.Submenus, func(i, j int) bool {
		return snap.Submenus[i].Title < snap.Submenus[j].Title
	})
	sort.SliceStable(snap.Dishes, func(i, j int) bool {
		return snap.Dishes[i].Title < snap.Dishes[j].Title
	})
}
