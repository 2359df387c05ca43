package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	jwtSecretBytes         = 48
	defaultShutdownTimeout = 15 * time.Second
)

// ApplyRuntimeDefaults fills values that must never be empty at runtime, including
// when the config was built by hand rather than through LoadConfig. It returns the
// keys it filled, in a stable order, so callers can log them without their values.
//
// A generated JWT secret only validates tokens signed with that same secret, so
// sessions from the hosted auth provider fail until auth.jwt.secret is configured.
func ApplyRuntimeDefaults(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var filled []string

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		buf := make([]byte, jwtSecretBytes)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = hex.EncodeToString(buf)
		filled = append(filled, "auth.jwt.secret")
	}

	if strings.TrimSpace(cfg.Usage.Timezone) == "" {
		cfg.Usage.Timezone = defaultTimezone
		filled = append(filled, "usage.timezone")
	}

	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
		filled = append(filled, "server.shutdown_timeout")
	}

	return filled, nil
}
