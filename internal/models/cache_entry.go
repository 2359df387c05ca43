package models

import "time"

// CacheEntry is one key of the database-backed key/value store used for usage
// records and rate counters when Redis is not configured.
type CacheEntry struct {
	Key   string `gorm:"primaryKey;size:256"`
	Value []byte
	// ExpiresAt is zero for entries without a TTL.
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the store's table name independent of the Go type.
func (CacheEntry) TableName() string { return "kv_entries" }

// ExpiredAt reports whether the entry has lapsed at now.
func (e CacheEntry) ExpiredAt(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
