package models

import "time"

// Subscription status values reported by the payment provider.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription records a premium entitlement. A nil ExpiresAt never lapses.
type Subscription struct {
	BaseModel

	UserID     string     `gorm:"type:uuid;uniqueIndex:idx_subscription_user_product;not null" json:"user_id"`
	ProductID  string     `gorm:"size:128;uniqueIndex:idx_subscription_user_product;not null" json:"product_id"`
	Store      string     `gorm:"size:32" json:"store"`
	Status     string     `gorm:"size:16;index;not null" json:"status"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastSyncAt time.Time  `json:"last_sync_at"`
}
