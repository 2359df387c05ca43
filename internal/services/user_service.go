package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/tarotgarden/internal/models"
)

// UserService mirrors accounts from the hosted auth provider into the users table.
type UserService struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, clock clockwork.Clock) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &UserService{db: db, clock: clock}, nil
}

// EnsureUser records a sign-in for the user, creating the row on first sight.
func (s *UserService) EnsureUser(ctx context.Context, userID, email, provider string) (*models.User, error) {
	ctx = ensureContext(ctx)
	id, err := normaliseID(userID)
	if err != nil {
		return nil, err
	}
	if provider == "" {
		provider = "email"
	}

	now := s.clock.Now()
	user := models.User{ID: id, Email: email, Provider: provider, LastSignInAt: &now}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "provider", "last_sign_in_at", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("user service: ensure user: %w", err)
	}
	return s.Get(ctx, id)
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// DeleteUser removes the users row. It implements AuthAdmin for account deletion.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	id, err := normaliseID(userID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("user service: delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
