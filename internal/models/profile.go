package models

import "gorm.io/datatypes"

// Profile stores per-user presentation settings.
type Profile struct {
	BaseModel

	UserID    string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Nickname  string `gorm:"size:64" json:"nickname"`
	BirthDate string `gorm:"size:10" json:"birth_date,omitempty"`
	// Preferences holds client-defined toggles (card back, sound, reversed cards).
	Preferences datatypes.JSONMap `json:"preferences,omitempty"`
}
