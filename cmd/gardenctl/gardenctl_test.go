package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	iauth "github.com/charlesng35/tarotgarden/internal/auth"
	"github.com/charlesng35/tarotgarden/internal/cache"
	"github.com/charlesng35/tarotgarden/internal/cachegate"
	"github.com/charlesng35/tarotgarden/internal/database"
	"github.com/charlesng35/tarotgarden/internal/tarot"
	"github.com/charlesng35/tarotgarden/internal/usage"
)

const testDevice = "0b8f7c4e-8a51-4c36-9b7e-3e8f6a0d1c22"

func writeConfig(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "garden.sqlite")
	content := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\n%s", dbPath, body)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenIssue(t *testing.T) {
	dir, _ := writeConfig(t, "auth:\n  jwt:\n    secret: cli-test-secret-with-enough-length!!\n    issuer: garden-cli\n")

	out, err := execute(t, "--config", dir, "token", "issue", "--user", "reader-1", "--email", "reader@example.com", "--provider", "google")
	require.NoError(t, err)

	svc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "cli-test-secret-with-enough-length!!", Issuer: "garden-cli"})
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, "reader-1", claims.UserID())
	require.Equal(t, "reader@example.com", claims.Email)
}

func TestTokenIssueRequiresSecret(t *testing.T) {
	dir, _ := writeConfig(t, "")

	_, err := execute(t, "--config", dir, "token", "issue", "--user", "reader-1")
	require.ErrorContains(t, err, "auth.jwt.secret")
}

func TestUsageStatusAndReset(t *testing.T) {
	dir, dbPath := writeConfig(t, "usage:\n  store: database\n  timezone: Asia/Seoul\n")

	db, err := database.Open(database.Config{Driver: "sqlite", Path: dbPath})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	clock := clockwork.NewRealClock()
	gate, err := usage.NewGate(cache.NewDatabaseStore(db, clock), usage.WithClock(clock), usage.WithLocation(seoul))
	require.NoError(t, err)
	require.True(t, gate.ForDevice(testDevice).TryUse(context.Background(), tarot.SpreadSevenStar, false))
	require.NoError(t, database.Close(db))

	out, err := execute(t, "--config", dir, "usage", "status", "--device", testDevice)
	require.NoError(t, err)
	var status usage.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.True(t, status.UsedToday)
	require.Equal(t, tarot.SpreadSevenStar, status.UsedSpread)
	require.False(t, status.Available[tarot.SpreadCelticCross])

	out, err = execute(t, "--config", dir, "usage", "reset", "--device", testDevice)
	require.NoError(t, err)
	require.Contains(t, out, testDevice)

	out, err = execute(t, "--config", dir, "usage", "status", "--device", testDevice)
	require.NoError(t, err)
	status = usage.Status{}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.False(t, status.UsedToday)
	require.True(t, status.Available[tarot.SpreadCelticCross])
}

func TestUsageRequiresDevice(t *testing.T) {
	dir, _ := writeConfig(t, "")

	_, err := execute(t, "--config", dir, "usage", "status")
	require.ErrorContains(t, err, "device")
}

func TestUsageRejectsMemoryStore(t *testing.T) {
	dir, _ := writeConfig(t, "usage:\n  store: memory\n")

	_, err := execute(t, "--config", dir, "usage", "status", "--device", testDevice)
	require.ErrorIs(t, err, errMemoryStore)
}

func TestCacheListAndPurge(t *testing.T) {
	mr := miniredis.RunT(t)
	dir, _ := writeConfig(t, fmt.Sprintf("cache:\n  redis:\n    address: %s\ncache_gate:\n  storage: redis\n  version: 2\n", mr.Addr()))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	storage := cachegate.NewRedisStorage(client)
	for _, name := range []string{"tarot-garden-v1", "tarot-garden-v2"} {
		_, err := storage.Open(context.Background(), name)
		require.NoError(t, err)
	}

	out, err := execute(t, "--config", dir, "cache", "list")
	require.NoError(t, err)
	require.Contains(t, out, "  tarot-garden-v1")
	require.Contains(t, out, "* tarot-garden-v2")

	out, err = execute(t, "--config", dir, "cache", "purge")
	require.NoError(t, err)
	require.Contains(t, out, "deleted tarot-garden-v1")

	names, err := storage.Keys(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"tarot-garden-v2"}, names)
}

func TestCacheRequiresSharedStorage(t *testing.T) {
	dir, _ := writeConfig(t, "")

	_, err := execute(t, "--config", dir, "cache", "list")
	require.ErrorIs(t, err, errLocalStorage)
}

func TestAuditReportsFailures(t *testing.T) {
	dir, _ := writeConfig(t, "interpret:\n  provider: gemini\n")

	out, err := execute(t, "--config", dir, "audit")
	require.ErrorIs(t, err, errAuditFailed)
	require.Contains(t, out, `"jwt_secret_strength"`)
	require.Contains(t, out, `"fail"`)
}

func TestAuditPasses(t *testing.T) {
	dir, _ := writeConfig(t, "auth:\n  jwt:\n    secret: 0123456789abcdef0123456789abcdef0123\n")

	out, err := execute(t, "--config", dir, "audit")
	require.NoError(t, err)
	require.Contains(t, out, `"summary"`)
}
