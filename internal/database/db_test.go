package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "garden.sqlite")

	db, err := Open(Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	for _, model := range []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Reading{},
		&models.JournalEntry{},
		&models.DailyCard{},
		&models.Subscription{},
		&models.CacheEntry{},
	} {
		require.True(t, db.Migrator().HasTable(model))
	}
}

func TestMigrateNilHandle(t *testing.T) {
	require.Error(t, Migrate(nil))
}

func TestReadingCardsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	reading := models.Reading{
		UserID: "4a7d1ed4-1b6b-4c8e-9b39-8f5d9e6f0a11",
		Spread: "three_card",
		Theme:  "love",
		Cards: []models.DrawnCard{
			{Card: "the_fool", Position: "과거"},
			{Card: "the_lovers", Position: "현재", Reversed: true},
			{Card: "the_star", Position: "미래"},
		},
	}
	require.NoError(t, db.Create(&reading).Error)
	require.NotEmpty(t, reading.ID)

	var loaded models.Reading
	require.NoError(t, db.First(&loaded, "id = ?", reading.ID).Error)
	require.Len(t, loaded.Cards, 3)
	require.True(t, loaded.Cards[1].Reversed)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	return db
}
