package menusync

import (
	"errors"

	"github.com/mmdatafocus/menu_backend/models"
)

// ErrSourceUnreadable marks a reconciliation run that aborted before touching
// any store because the spreadsheet could not be read.
var ErrSourceUnreadable = errors.New("menu source unreadable")

// Snapshot is the flat parse of the spreadsheet at one point in time: three
// ordered lists with identifiers generated at parse time and parent backrefs
// established while walking the sheet.
type Snapshot struct {
	Menus    []MenuRecord    `json:"menus"`
	Submenus []SubmenuRecord `json:"submenus"`
	Dishes   []DishRecord    `json:"dishes"`
}

type MenuRecord struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SubmenuRecord struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MenuId      string `json:"menu_id"`
}

type DishRecord struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	SubmenuId   string `json:"submenu_id"`
}

// IsEmpty reports whether any of the three lists is empty, mirroring the
// bootstrap/wipe checks which treat a partially empty workbook as empty.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Menus) == 0 || len(s.Submenus) == 0 || len(s.Dishes) == 0
}

/* structural equality: natural fields only, identifiers ignored */

func (r MenuRecord) sameContent(m *models.Menu) bool {
	return r.Title == m.Title && r.Description == m.Description
}

func (r SubmenuRecord) sameContent(s *models.Submenu) bool {
	return r.Title == s.Title && r.Description == s.Description
}

func (r DishRecord) sameContent(d *models.Dish) bool {
	return r.Title == d.Title && r.Description == d.Description && r.Price == d.Price
}
