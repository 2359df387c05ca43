package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/models"
)

const (
	defaultReadingPageSize = 20
	maxReadingPageSize     = 100
)

// ReadingService persists readings and the journal that hangs off them.
type ReadingService struct {
	db *gorm.DB
}

// NewReadingService constructs a ReadingService.
func NewReadingService(db *gorm.DB) (*ReadingService, error) {
	if db == nil {
		return nil, errors.New("reading service: db is required")
	}
	return &ReadingService{db: db}, nil
}

// Create stores a reading for its user.
func (s *ReadingService) Create(ctx context.Context, reading *models.Reading) error {
	ctx = ensureContext(ctx)
	if reading == nil {
		return errors.New("reading service: reading is required")
	}
	id, err := normaliseID(reading.UserID)
	if err != nil {
		return err
	}
	reading.UserID = id

	if err := s.db.WithContext(ctx).Create(reading).Error; err != nil {
		return fmt.Errorf("reading service: create: %w", err)
	}
	return nil
}

// ListForUser returns the user's readings, newest first.
func (s *ReadingService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Reading, error) {
	ctx = ensureContext(ctx)
	id, err := normaliseID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReadingPageSize
	}
	if limit > maxReadingPageSize {
		limit = maxReadingPageSize
	}

	var readings []models.Reading
	err = s.db.WithContext(ctx).
		Where("user_id = ?", id).
		Order("created_at DESC").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("reading service: list: %w", err)
	}
	return readings, nil
}
