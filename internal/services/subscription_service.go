package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/tarotgarden/internal/models"
)

// SubscriptionInput is an entitlement reported by the payment provider.
type SubscriptionInput struct {
	ProductID string     `json:"product_id" validate:"required,max=128"`
	Store     string     `json:"store" validate:"omitempty,oneof=app_store play_store stripe promotional"`
	Status    string     `json:"status" validate:"required,oneof=active cancelled expired"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// SubscriptionService answers premium status and stores entitlements.
type SubscriptionService struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewSubscriptionService constructs a SubscriptionService.
func NewSubscriptionService(db *gorm.DB, clock clockwork.Clock) (*SubscriptionService, error) {
	if db == nil {
		return nil, errors.New("subscription service: db is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SubscriptionService{db: db, clock: clock}, nil
}

// IsPremium reports whether the user holds an active, unexpired subscription.
// Anonymous callers (empty id) are never premium.
func (s *SubscriptionService) IsPremium(ctx context.Context, userID string) (bool, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Where("expires_at IS NULL OR expires_at > ?", s.clock.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("subscription service: premium lookup: %w", err)
	}
	return count > 0, nil
}

// Upsert stores the entitlement for (user, product).
func (s *SubscriptionService) Upsert(ctx context.Context, userID string, input SubscriptionInput) (*models.Subscription, error) {
	ctx = ensureContext(ctx)
	id, err := normaliseID(userID)
	if err != nil {
		return nil, err
	}
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return nil, ErrInvalidSubscription.WithMessage("product_id is required")
	}

	var expiresAt *time.Time
	if input.ExpiresAt != nil {
		utc := input.ExpiresAt.UTC()
		expiresAt = &utc
	}

	sub := models.Subscription{
		UserID:     id,
		ProductID:  productID,
		Store:      input.Store,
		Status:     strings.ToLower(strings.TrimSpace(input.Status)),
		ExpiresAt:  expiresAt,
		LastSyncAt: s.clock.Now().UTC(),
	}
	switch sub.Status {
	case models.SubscriptionActive, models.SubscriptionCancelled, models.SubscriptionExpired:
	default:
		return nil, ErrInvalidSubscription.WithMessage(fmt.Sprintf("unknown status %q", input.Status))
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"store", "status", "expires_at", "last_sync_at", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("subscription service: upsert: %w", err)
	}

	var stored models.Subscription
	if err := s.db.WithContext(ctx).First(&stored, "user_id = ? AND product_id = ?", id, productID).Error; err != nil {
		return nil, fmt.Errorf("subscription service: reload: %w", err)
	}
	return &stored, nil
}

// ListForUser returns the user's subscriptions, most recently synced first.
func (s *SubscriptionService) ListForUser(ctx context.Context, userID string) ([]models.Subscription, error) {
	ctx = ensureContext(ctx)
	id, err := normaliseID(userID)
	if err != nil {
		return nil, err
	}

	var subs []models.Subscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", id).Order("last_sync_at DESC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("subscription service: list: %w", err)
	}
	return subs, nil
}
