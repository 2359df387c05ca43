package models

import "gorm.io/datatypes"

// DrawnCard is one card placed in a spread position.
type DrawnCard struct {
	Card     string `json:"card"`
	Position string `json:"position"`
	Reversed bool   `json:"reversed"`
}

// Reading is a completed spread together with its generated interpretation.
type Reading struct {
	BaseModel

	UserID         string                         `gorm:"type:uuid;index;not null" json:"user_id"`
	Spread         string                         `gorm:"size:64;not null" json:"spread"`
	Theme          string                         `gorm:"size:32" json:"theme"`
	Question       string                         `json:"question"`
	Cards          datatypes.JSONSlice[DrawnCard] `json:"cards"`
	Interpretation string                         `gorm:"type:text" json:"interpretation"`
	Provider       string                         `gorm:"size:32" json:"provider"`
}

// JournalEntry is a free-form note a user keeps, optionally linked to a reading.
type JournalEntry struct {
	BaseModel

	UserID    string  `gorm:"type:uuid;index;not null" json:"user_id"`
	ReadingID *string `gorm:"type:uuid;index" json:"reading_id,omitempty"`
	Title     string  `gorm:"size:128" json:"title"`
	Body      string  `gorm:"type:text" json:"body"`
}

// DailyCard records the single card a user drew on a calendar day.
type DailyCard struct {
	BaseModel

	UserID   string `gorm:"type:uuid;uniqueIndex:idx_daily_card_user_date;not null" json:"user_id"`
	Date     string `gorm:"size:10;uniqueIndex:idx_daily_card_user_date;not null" json:"date"`
	Card     string `gorm:"size:64;not null" json:"card"`
	Reversed bool   `json:"reversed"`
}
