package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsFillsEmptyConfig(t *testing.T) {
	cfg := &Config{}

	filled, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"auth.jwt.secret", "usage.timezone", "server.shutdown_timeout"}, filled)

	require.Len(t, cfg.Auth.JWT.Secret, jwtSecretBytes*2)
	require.Equal(t, "Asia/Seoul", cfg.Usage.Timezone)
	require.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)

	other := &Config{}
	_, err = ApplyRuntimeDefaults(other)
	require.NoError(t, err)
	require.NotEqual(t, cfg.Auth.JWT.Secret, other.Auth.JWT.Secret)
}

func TestApplyRuntimeDefaultsKeepsConfiguredValues(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.JWT.Secret = strings.Repeat("a", 10)
	cfg.Usage.Timezone = "UTC"
	cfg.Server.ShutdownTimeout = time.Second

	filled, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, filled)
	require.Equal(t, strings.Repeat("a", 10), cfg.Auth.JWT.Secret)
	require.Equal(t, time.Second, cfg.Server.ShutdownTimeout)
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.EqualError(t, err, "config is nil")
}

func TestAdaptersTrimAndDefault(t *testing.T) {
	auth := AuthConfig{JWT: JWTSettings{Secret: "s", Issuer: "  garden "}}
	jwtCfg := auth.JWTServiceConfig()
	require.Equal(t, "garden", jwtCfg.Issuer)
	require.Equal(t, time.Hour, jwtCfg.AccessTokenTTL)

	db := DatabaseConfig{Driver: " sqlite ", Path: " ./data/x.sqlite "}.Connection()
	require.Equal(t, "sqlite", db.Driver)
	require.Equal(t, "./data/x.sqlite", db.Path)

	redisCfg := CacheConfig{Redis: RedisCacheConfig{Address: " 127.0.0.1:6379 ", DB: 2}}.RedisClientConfig()
	require.Equal(t, "127.0.0.1:6379", redisCfg.Address)
	require.Equal(t, 2, redisCfg.DB)
}
