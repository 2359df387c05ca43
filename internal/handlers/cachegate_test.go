package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/tarotgarden/internal/cachegate"
	"github.com/charlesng35/tarotgarden/internal/handlers/testutil"
)

func TestCacheGateServesWebBuild(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")
	require.Equal(t, "basic", w.Header().Get("X-Cache-Gate"))
	require.Contains(t, w.Body.String(), "<html")

	w = env.Request(http.MethodGet, "/assets/styles/main.css", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/css")

	// client-side routes get the document
	w = env.Request(http.MethodGet, "/readings/today", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<html")
}

func TestCacheGateHeadOmitsBody(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodHead, "/manifest.json", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, w.Body.Len())
}

func TestCacheGateMissingAsset(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/assets/missing.js", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/does-not-exist", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}

func TestCacheGateUnregisterModeStillServes(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithCacheGateMode(cachegate.ModeUnregister))
	require.Equal(t, cachegate.StateRedundant, env.CacheGate.State())

	w := env.Request(http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<html")
}
