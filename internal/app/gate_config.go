package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/charlesng35/tarotgarden/internal/cachegate"
	"github.com/charlesng35/tarotgarden/internal/interpret"
	"github.com/charlesng35/tarotgarden/internal/middleware"
)

const defaultTimezone = "Asia/Seoul"

// Store backends accepted by usage.store and cache_gate.storage.
const (
	StoreMemory   = "memory"
	StoreDatabase = "database"
	StoreRedis    = "redis"
)

// Location resolves the zone whose midnight resets the daily quota.
func (c UsageConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		name = defaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: usage.timezone: %w", err)
	}
	return loc, nil
}

// StoreKind normalises usage.store, defaulting to the database.
func (c UsageConfig) StoreKind() (string, error) {
	switch kind := strings.ToLower(strings.TrimSpace(c.Store)); kind {
	case "":
		return StoreDatabase, nil
	case StoreMemory, StoreDatabase, StoreRedis:
		return kind, nil
	default:
		return "", fmt.Errorf("config: unknown usage.store %q", c.Store)
	}
}

// GateConfig converts the section into cachegate.Config.
func (c CacheGateConfig) GateConfig() (cachegate.Config, error) {
	mode, err := cachegate.ParseMode(c.Mode)
	if err != nil {
		return cachegate.Config{}, err
	}
	return cachegate.Config{
		Mode:    mode,
		Prefix:  strings.TrimSpace(c.Prefix),
		Version: c.Version,
		Seeds:   c.Seeds,
	}, nil
}

// StorageKind normalises cache_gate.storage, defaulting to memory.
func (c CacheGateConfig) StorageKind() (string, error) {
	switch kind := strings.ToLower(strings.TrimSpace(c.Storage)); kind {
	case "":
		return StoreMemory, nil
	case StoreMemory, StoreRedis:
		return kind, nil
	default:
		return "", fmt.Errorf("config: unknown cache_gate.storage %q", c.Storage)
	}
}

// Options converts the section into interpret.Config.
func (c InterpretConfig) Options() interpret.Config {
	return interpret.Config{
		Provider: strings.TrimSpace(c.Provider),
		Model:    strings.TrimSpace(c.Model),
		APIKey:   strings.TrimSpace(c.APIKey),
		Timeout:  c.Timeout,
	}
}

// Middleware converts the section into the token bucket settings.
func (c RateLimitConfig) Middleware(clock clockwork.Clock) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		IdleTTL:           c.IdleTTL,
		Clock:             clock,
	}
}
