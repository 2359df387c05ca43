package monitoring

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/cachegate"
)

const (
	defaultProbeTimeout      = 2 * time.Second
	defaultMaintenanceMaxAge = 3 * time.Hour
)

// Database pings the database handle.
func Database(db *gorm.DB, timeout time.Duration) Check {
	return NewCheck("database", func(ctx context.Context) ProbeResult {
		start := time.Now()
		if db == nil {
			return ProbeResult{Status: StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return ResultFromError(err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout))
		defer cancel()

		return ResultFromError(sqlDB.PingContext(probeCtx), time.Since(start))
	})
}

// RedisPinger is satisfied by *redis.Client and the other go-redis clients.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Redis pings a shared Redis. A failed ping is degraded because every Redis-backed
// component has a local fallback.
func Redis(client RedisPinger, timeout time.Duration) Check {
	return NewCheck("redis", func(ctx context.Context) ProbeResult {
		start := time.Now()
		if client == nil {
			return ProbeResult{Status: StatusDegraded, Details: "redis unavailable"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout))
		defer cancel()

		if err := client.Ping(probeCtx).Err(); err != nil {
			return ProbeResult{Status: StatusDegraded, Details: err.Error(), Duration: time.Since(start)}
		}
		return ProbeResult{Status: StatusUp, Duration: time.Since(start)}
	})
}

// GateState is the read-only view of a cache gate.
type GateState interface {
	Name() string
	Mode() cachegate.Mode
	State() cachegate.State
}

// CacheGate reports up once the gate finished its lifecycle. A gate that is still
// installing, or never installed, serves from the network and is degraded.
func CacheGate(gate GateState) Check {
	return NewCheck("cache_gate", func(context.Context) ProbeResult {
		if gate == nil {
			return ProbeResult{Status: StatusDown, Details: "cache gate not configured"}
		}

		state := gate.State()
		switch {
		case state == cachegate.StateActive:
			return ProbeResult{Status: StatusUp, Details: gate.Name()}
		case state == cachegate.StateRedundant && gate.Mode() == cachegate.ModeUnregister:
			return ProbeResult{Status: StatusUp, Details: "unregistered"}
		default:
			return ProbeResult{Status: StatusDegraded, Details: string(state)}
		}
	})
}

// RunTracker reports the last completed maintenance run, e.g. *maintenance.Cleaner.
type RunTracker interface {
	LastRun() (time.Time, error)
}

// Maintenance verifies the background cleaner ran recently and without errors.
func Maintenance(tracker RunTracker, maxAge time.Duration, now func() time.Time) Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}
	if now == nil {
		now = time.Now
	}

	return NewCheck("maintenance", func(context.Context) ProbeResult {
		if tracker == nil {
			return ProbeResult{Status: StatusUp, Details: "maintenance disabled"}
		}

		at, err := tracker.LastRun()
		switch {
		case at.IsZero():
			return ProbeResult{Status: StatusUp, Details: "pending first run"}
		case err != nil:
			return ProbeResult{Status: StatusDegraded, Details: err.Error()}
		case now().Sub(at) > maxAge:
			return ProbeResult{Status: StatusDegraded, Details: "stale run " + at.UTC().Format(time.RFC3339)}
		}
		return ProbeResult{Status: StatusUp}
	})
}

func chooseTimeout(provided time.Duration) time.Duration {
	if provided <= 0 {
		return defaultProbeTimeout
	}
	return provided
}
