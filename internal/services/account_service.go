package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/models"
	"github.com/charlesng35/tarotgarden/pkg/logger"
	"github.com/charlesng35/tarotgarden/pkg/metrics"
)

// AuthAdmin deletes accounts from the auth provider.
type AuthAdmin interface {
	DeleteUser(ctx context.Context, userID string) error
}

// ErrAuthDeletion wraps the failure to remove the auth account, which aborts a deletion.
var ErrAuthDeletion = errors.New("account service: delete auth user")

// ownedTables lists every table holding user rows, in deletion order.
var ownedTables = []struct {
	name  string
	model interface{}
}{
	{"journal_entries", &models.JournalEntry{}},
	{"readings", &models.Reading{}},
	{"daily_cards", &models.DailyCard{}},
	{"subscriptions", &models.Subscription{}},
	{"profiles", &models.Profile{}},
}

// TableResult reports what happened to one table during a deletion.
type TableResult struct {
	Table   string `json:"table"`
	Deleted int64  `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// DeletionReport summarises an account deletion.
type DeletionReport struct {
	UserID string        `json:"user_id"`
	Tables []TableResult `json:"tables"`
	// TableErrors aggregates the per-table failures that did not abort the deletion.
	TableErrors error `json:"-"`
}

// Partial reports whether any table could not be cleared.
func (r DeletionReport) Partial() bool {
	return r.TableErrors != nil
}

// AccountService removes a user and everything they own.
type AccountService struct {
	db    *gorm.DB
	admin AuthAdmin
	log   *zap.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, admin AuthAdmin) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if admin == nil {
		return nil, errors.New("account service: auth admin is required")
	}
	return &AccountService{db: db, admin: admin, log: logger.WithModule("account")}, nil
}

// DeleteAccount deletes the user's rows table by table, carrying on past failures, then
// deletes the auth account. Only the auth deletion failing makes the call fail; an auth
// account that is already gone counts as deleted.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) (DeletionReport, error) {
	ctx = ensureContext(ctx)
	id, err := normaliseID(userID)
	if err != nil {
		return DeletionReport{}, err
	}

	report := DeletionReport{UserID: id, Tables: make([]TableResult, 0, len(ownedTables))}
	for _, table := range ownedTables {
		result := s.db.WithContext(ctx).Where("user_id = ?", id).Delete(table.model)
		entry := TableResult{Table: table.name, Deleted: result.RowsAffected}
		if result.Error != nil {
			entry.Error = result.Error.Error()
			report.TableErrors = multierr.Append(report.TableErrors, fmt.Errorf("%s: %w", table.name, result.Error))
			s.log.Warn("failed to delete user rows", zap.String("user_id", id), zap.String("table", table.name), zap.Error(result.Error))
		}
		report.Tables = append(report.Tables, entry)
	}

	if err := s.admin.DeleteUser(ctx, id); errors.Is(err, ErrUserNotFound) {
		s.log.Info("auth user already absent", zap.String("user_id", id))
	} else if err != nil {
		metrics.AccountDeletions.WithLabelValues("failure").Inc()
		s.log.Error("failed to delete auth user", zap.String("user_id", id), zap.Error(err))
		return report, fmt.Errorf("%w: %w", ErrAuthDeletion, err)
	}

	if report.Partial() {
		metrics.AccountDeletions.WithLabelValues("partial").Inc()
	} else {
		metrics.AccountDeletions.WithLabelValues("success").Inc()
	}
	s.log.Info("account deleted", zap.String("user_id", id), zap.Bool("partial", report.Partial()))
	return report, nil
}
