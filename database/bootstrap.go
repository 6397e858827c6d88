// database/bootstrap.go
package database

import (
	"log"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/gorm"

	"soilscan/entities"
)

// OpenSQLite opens the session store. The default DSN is ":memory:" on
// purpose: all workflow state is session-scoped and must not survive a
// process restart.
func OpenSQLite(path string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&entities.Session{},
		&entities.CropSuggestion{},
		&entities.ReportExport{},
		&entities.Notification{},
		&entities.ShellSettings{},
		&entities.KBDocument{},
		&entities.KBChunk{},
	); err != nil {
		log.Fatalf("automigrate: %v", err)
	}

	return db
}

// SeedNotifications inserts the demo header notifications once per boot.
func SeedNotifications(db *gorm.DB) {
	var n int64
	db.Model(&entities.Notification{}).Count(&n)
	if n > 0 {
		return
	}
	rows := []entities.Notification{
		{Title: "Welcome to SoilScan", Body: "Upload a soil photo to get started."},
		{Title: "Weather alerts available", Body: "Enable weather alerts in settings to get local advisories."},
		{Title: "New crop guides", Body: "Fresh agronomy articles were added to the knowledge base."},
	}
	if err := db.Create(&rows).Error; err != nil {
		log.Printf("seed notifications: %v", err)
	}
}
