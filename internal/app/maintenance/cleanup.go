package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/models"
	"github.com/charlesng35/tarotgarden/pkg/logger"
)

const defaultSchedule = "@hourly"

// ExpiredPurger removes expired key/value entries, e.g. *cache.DatabaseStore.
type ExpiredPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StalePurger removes cache generations other than the current one, e.g. *cachegate.Gate.
type StalePurger interface {
	PurgeStale(ctx context.Context) ([]string, error)
}

// Cleaner runs periodic housekeeping: expired usage records and rate counters,
// stale cache gate generations and lapsed subscriptions.
type Cleaner struct {
	db       *gorm.DB
	entries  ExpiredPurger
	gate     StalePurger
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	enabled  bool
	schedule string

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithExpiredEntries enables purging of expired store entries.
func WithExpiredEntries(p ExpiredPurger) Option {
	return func(cleaner *Cleaner) {
		cleaner.entries = p
	}
}

// WithStaleGenerations enables purging of old cache gate generations.
func WithStaleGenerations(p StalePurger) Option {
	return func(cleaner *Cleaner) {
		cleaner.gate = p
	}
}

// NewCleaner constructs a Cleaner. A nil db skips the subscription sweep.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:       db,
		now:      time.Now,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.db != nil || cleaner.entries != nil || cleaner.gate != nil

	return cleaner
}

// Start registers the cleanup job and launches the scheduler if anything is configured.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured cleanup, carrying on past failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.entries != nil {
		removed, err := c.entries.DeleteExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expired entries: %w", err))
		} else if removed > 0 {
			c.log.Info("expired entries removed", zap.Int64("count", removed))
		}
	}

	if c.gate != nil {
		purged, err := c.gate.PurgeStale(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("stale generations: %w", err))
		} else if len(purged) > 0 {
			c.log.Info("stale cache generations removed", zap.Strings("names", purged))
		}
	}

	if c.db != nil {
		expired, err := ExpireSubscriptions(ctx, c.db, c.now())
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if expired > 0 {
			c.log.Info("subscriptions expired", zap.Int64("count", expired))
		}
	}

	c.mu.Lock()
	c.lastRun, c.lastErr = c.now(), errs
	c.mu.Unlock()

	return errs
}

// LastRun reports when RunOnce last finished and what it returned.
func (c *Cleaner) LastRun() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun, c.lastErr
}

// ExpireSubscriptions marks active subscriptions whose expiry has passed as expired.
func ExpireSubscriptions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("expire subscriptions: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.SubscriptionActive, now.UTC()).
		Update("status", models.SubscriptionExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
