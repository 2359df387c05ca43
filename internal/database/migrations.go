package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Reading{},
		&models.JournalEntry{},
		&models.DailyCard{},
		&models.Subscription{},
		&models.CacheEntry{},
	)
}
