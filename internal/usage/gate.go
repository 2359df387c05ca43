package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/charlesng35/tarotgarden/internal/cache"
	"github.com/charlesng35/tarotgarden/internal/tarot"
	"github.com/charlesng35/tarotgarden/pkg/logger"
	"github.com/charlesng35/tarotgarden/pkg/metrics"
)

// ErrStoreRequired is returned when a gate is built without a record store.
var ErrStoreRequired = errors.New("usage gate: store is required")

// Gate enforces one free restricted spread per calendar day for non-premium users.
// Store failures never reach callers: reads degrade to "unused", writes are dropped.
type Gate struct {
	store   cache.Store
	lockKey string
	locks   *keyLocks
	clock   clockwork.Clock
	loc     *time.Location
	log     *zap.Logger
}

// Option customises a Gate.
type Option func(*Gate)

// WithClock sets the clock used for "today" and the reset countdown.
func WithClock(clock clockwork.Clock) Option {
	return func(g *Gate) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithLocation sets the time zone whose calendar defines a day.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithLogger overrides the module logger.
func WithLogger(log *zap.Logger) Option {
	return func(g *Gate) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGate builds a gate over store.
func NewGate(store cache.Store, opts ...Option) (*Gate, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	g := &Gate{
		store:   store,
		lockKey: StorageKey,
		locks:   &keyLocks{},
		clock:   clockwork.NewRealClock(),
		loc:     time.Local,
		log:     logger.WithModule("usage"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ForDevice returns a gate bound to one device's record. Gates derived from the same
// parent share its lock table.
func (g *Gate) ForDevice(deviceID string) *Gate {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return g
	}
	scope := "device:" + deviceID

	derived := *g
	derived.store = cache.Scoped(g.store, scope)
	derived.lockKey = scope + ":" + StorageKey
	derived.log = g.log.With(zap.String("device_id", deviceID))
	return &derived
}

// IsRestricted reports whether id is one of the premium spreads.
func (g *Gate) IsRestricted(id string) bool {
	return tarot.IsRestricted(id)
}

// CanUse reports whether the spread may be opened now. It has no side effects.
func (g *Gate) CanUse(ctx context.Context, id string, isPremium bool) bool {
	switch {
	case isPremium:
		observe(id, "premium")
		return true
	case !g.IsRestricted(id):
		observe(id, "unrestricted")
		return true
	}

	if g.load(ctx).usedOn(g.today()) {
		observe(id, "deny")
		return false
	}
	observe(id, "allow")
	return true
}

// RecordUse marks a restricted spread as today's free use. Other ids are ignored.
func (g *Gate) RecordUse(ctx context.Context, id string) {
	if !g.IsRestricted(id) {
		return
	}

	unlock := g.locks.lock(g.lockKey)
	defer unlock()

	g.save(ctx, Record{Date: g.today(), UsedSpread: id})
}

// TryUse checks and records under the per-key lock, so concurrent callers for one
// device cannot both consume the free use.
func (g *Gate) TryUse(ctx context.Context, id string, isPremium bool) bool {
	if isPremium {
		observe(id, "premium")
		return true
	}
	if !g.IsRestricted(id) {
		observe(id, "unrestricted")
		return true
	}

	unlock := g.locks.lock(g.lockKey)
	defer unlock()

	today := g.today()
	if g.load(ctx).usedOn(today) {
		observe(id, "deny")
		return false
	}

	g.save(ctx, Record{Date: today, UsedSpread: id})
	observe(id, "allow")
	return true
}

// HasUsedToday reports whether a restricted spread was used today.
func (g *Gate) HasUsedToday(ctx context.Context) bool {
	return g.load(ctx).usedOn(g.today())
}

// UsedSpreadToday returns the spread used today, if any.
func (g *Gate) UsedSpreadToday(ctx context.Context) (string, bool) {
	rec := g.load(ctx)
	if !rec.usedOn(g.today()) {
		return "", false
	}
	return rec.UsedSpread, true
}

// ResetAll deletes the usage record.
func (g *Gate) ResetAll(ctx context.Context) {
	unlock := g.locks.lock(g.lockKey)
	defer unlock()

	if err := g.store.Delete(ctx, StorageKey); err != nil {
		metrics.UsageStoreErrors.WithLabelValues("delete").Inc()
		g.log.Error("failed to reset usage record", zap.Error(err))
	}
}

// TimeUntilReset returns the time left until the next local midnight.
func (g *Gate) TimeUntilReset() Countdown {
	now := g.clock.Now().In(g.loc)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, g.loc)
	return NewCountdown(midnight.Sub(now))
}

func (g *Gate) today() string {
	return g.clock.Now().In(g.loc).Format(dateLayout)
}

// load returns the stored record, or the zero record when it is missing, unreadable or corrupt.
func (g *Gate) load(ctx context.Context) Record {
	raw, ok, err := g.store.Get(ctx, StorageKey)
	if err != nil {
		metrics.UsageStoreErrors.WithLabelValues("get").Inc()
		g.log.Error("failed to read usage record", zap.Error(err))
		return Record{}
	}
	if !ok {
		return Record{}
	}

	rec, err := decodeRecord(raw)
	if err != nil {
		g.log.Warn("ignoring malformed usage record", zap.Error(err))
		return Record{}
	}
	return rec
}

func (g *Gate) save(ctx context.Context, rec Record) {
	raw, err := encodeRecord(rec)
	if err == nil {
		err = g.store.Set(ctx, StorageKey, raw, RecordTTL)
	}
	if err != nil {
		metrics.UsageStoreErrors.WithLabelValues("set").Inc()
		g.log.Error("failed to persist usage record", zap.String("spread", rec.UsedSpread), zap.Error(err))
	}
}

// spreadLabel keeps the decision metric bounded to catalog spreads.
func spreadLabel(id string) string {
	if _, ok := tarot.LookupSpread(id); !ok {
		return "other"
	}
	return id
}

func observe(spread, result string) {
	metrics.UsageDecisions.WithLabelValues(spreadLabel(spread), result).Inc()
}

// Countdown is a duration rounded down to whole minutes for display.
type Countdown struct {
	Duration time.Duration
	Hours    int
	Minutes  int
}

// NewCountdown splits d into hours and remaining minutes.
func NewCountdown(d time.Duration) Countdown {
	if d < 0 {
		d = 0
	}
	return Countdown{
		Duration: d,
		Hours:    int(d / time.Hour),
		Minutes:  int((d % time.Hour) / time.Minute),
	}
}

// String renders "N시간 M분", or "M분" when there are no whole hours left.
func (c Countdown) String() string {
	if c.Hours == 0 {
		return fmt.Sprintf("%d분", c.Minutes)
	}
	return fmt.Sprintf("%d시간 %d분", c.Hours, c.Minutes)
}
