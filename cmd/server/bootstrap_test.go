package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/tarotgarden/internal/app"
	"github.com/charlesng35/tarotgarden/internal/cache"
	"github.com/charlesng35/tarotgarden/internal/cachegate"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()

	cfg, err := loadApplicationConfig(t.TempDir())
	require.NoError(t, err)

	cfg.Database.Path = filepath.Join(t.TempDir(), "garden.sqlite")
	cfg.Maintenance.Enabled = false
	_, err = app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	return cfg
}

func startStack(t *testing.T, cfg *app.Config) *runtimeStack {
	t.Helper()

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })
	return stack
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Usage.Store = app.StoreMemory

	stack := startStack(t, cfg)
	require.Nil(t, stack.Redis)
	require.Equal(t, cachegate.StateActive, stack.CacheGate.State())

	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestBootstrapRuntimeWithMaintenance(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.Enabled = true

	stack := startStack(t, cfg)
	require.NotNil(t, stack.Cleaner)

	stack.Shutdown(context.Background(), zap.NewNop())
	require.Nil(t, stack.Cleaner)
	require.Nil(t, stack.DB)
}

func TestBootstrapRuntimeUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Cache.Redis.Address = mr.Addr()
	cfg.Usage.Store = app.StoreRedis
	cfg.CacheGate.Storage = app.StoreRedis

	stack := startStack(t, cfg)
	require.NotNil(t, stack.Redis)

	var gateKeys int
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, cache.KeyPrefix+"cachegate:") {
			gateKeys++
		}
	}
	require.Equal(t, 1, gateKeys)

	req := httptest.NewRequest(http.MethodPost, "/api/usage/premium/record", strings.NewReader(`{"spread":"celtic_cross"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-ID", "0b8f7c4e-8a51-4c36-9b7e-3e8f6a0d1c22")
	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var usageKeys int
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, cache.KeyPrefix) && !strings.HasPrefix(key, cache.KeyPrefix+"cachegate:") && !strings.Contains(key, "ratelimit") {
			usageKeys++
		}
	}
	require.Positive(t, usageKeys)
}

func TestBootstrapRuntimeRedisFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Redis.Address = "127.0.0.1:1"
	cfg.Usage.Store = app.StoreRedis

	stack := startStack(t, cfg)
	require.Nil(t, stack.Redis)

	rec := httptest.NewRecorder()
	stack.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoadApplicationConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 9100\nusage:\n  timezone: UTC\n"), 0o600))

	cfg, err := loadApplicationConfig(file)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "UTC", cfg.Usage.Timezone)

	cfg, err = loadApplicationConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)

	_, err = loadApplicationConfig(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, app.ServerConfig{Port: 0, ShutdownTimeout: time.Second}, http.NotFoundHandler(), zap.NewNop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
