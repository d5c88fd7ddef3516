package models

import (
	"log"

	"github.com/mmdatafocus/menu_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Menu{}, &Submenu{}, &Dish{},
		&CacheInvalidationRecord{},
		&MenuSyncRun{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
