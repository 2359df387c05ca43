package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/api"
	"github.com/charlesng35/tarotgarden/internal/app"
	iauth "github.com/charlesng35/tarotgarden/internal/auth"
	"github.com/charlesng35/tarotgarden/internal/cache"
	"github.com/charlesng35/tarotgarden/internal/cachegate"
	sharedtestutil "github.com/charlesng35/tarotgarden/internal/database/testutil"
	"github.com/charlesng35/tarotgarden/internal/interpret"
	"github.com/charlesng35/tarotgarden/internal/middleware"
	"github.com/charlesng35/tarotgarden/internal/models"
	"github.com/charlesng35/tarotgarden/internal/usage"
	"github.com/charlesng35/tarotgarden/pkg/response"
	"github.com/charlesng35/tarotgarden/web"
)

// KST is the zone the test gate resets in.
var KST = time.FixedZone("KST", 9*60*60)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T         *testing.T
	DB        *gorm.DB
	Router    *gin.Engine
	JWT       *iauth.JWTService
	Clock     *clockwork.FakeClock
	Store     *cache.MemoryStore
	Usage     *usage.Gate
	CacheGate *cachegate.Gate
	Generator *interpret.MockGenerator
	Config    *app.Config
}

// Option adjusts the environment before the router is built.
type Option func(*envOptions)

type envOptions struct {
	configure func(*app.Config)
	mode      cachegate.Mode
}

// WithConfig mutates the router configuration.
func WithConfig(fn func(*app.Config)) Option {
	return func(o *envOptions) { o.configure = fn }
}

// WithCacheGateMode selects the cache gate mode (cache by default).
func WithCacheGateMode(mode cachegate.Mode) Option {
	return func(o *envOptions) { o.mode = mode }
}

// NewEnv provisions a fresh handler test environment. The fake clock starts at
// 2024-05-20 10:00 KST and the cache gate is already active.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	options := envOptions{mode: cachegate.ModeCache}
	for _, opt := range opts {
		opt(&options)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 20, 10, 0, 0, 0, KST))

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "test-suite-super-secret-key-32-bytes!!",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
		Clock:          clock,
	})
	require.NoError(t, err)

	store := cache.NewMemoryStore(clock)
	gate, err := usage.NewGate(store, usage.WithClock(clock), usage.WithLocation(KST))
	require.NoError(t, err)

	dist, err := web.FS()
	require.NoError(t, err)
	cacheGate, err := cachegate.New(
		cachegate.Config{Mode: options.mode},
		cachegate.NewHandlerFetcher(web.Handler(dist)),
		cachegate.NewMemoryStorage(),
	)
	require.NoError(t, err)
	require.NoError(t, cacheGate.Start(context.Background()))

	generator := &interpret.MockGenerator{}
	interpreter, err := interpret.NewInterpreter(generator, time.Second)
	require.NoError(t, err)

	cfg := &app.Config{
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}
	if options.configure != nil {
		options.configure(cfg)
	}

	router, err := api.NewRouter(cfg, api.Dependencies{
		DB:          db,
		JWT:         jwtSvc,
		Usage:       gate,
		CacheGate:   cacheGate,
		Interpreter: interpreter,
		RateStore:   middleware.NewStoreRateStore(store),
		Clock:       clock,
	})
	require.NoError(t, err)

	return &Env{
		T:         t,
		DB:        db,
		Router:    router,
		JWT:       jwtSvc,
		Clock:     clock,
		Store:     store,
		Usage:     gate,
		CacheGate: cacheGate,
		Generator: generator,
		Config:    cfg,
	}
}

// CreateUser inserts a user row and returns it.
func (e *Env) CreateUser(id, email string) *models.User {
	e.T.Helper()

	user := &models.User{ID: id, Email: email, Provider: "email"}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// Token issues an access token for userID.
func (e *Env) Token(userID string) string {
	e.T.Helper()

	token, err := e.JWT.IssueAccessToken(iauth.AccessTokenInput{
		UserID:   userID,
		Email:    userID + "@example.com",
		Provider: "email",
	})
	require.NoError(e.T, err)
	return token
}

// GrantPremium stores an active, non-expiring subscription for userID.
func (e *Env) GrantPremium(userID string) {
	e.T.Helper()

	require.NoError(e.T, e.DB.Create(&models.Subscription{
		UserID:     userID,
		ProductID:  "premium_monthly",
		Store:      "app_store",
		Status:     models.SubscriptionActive,
		LastSyncAt: e.Clock.Now(),
	}).Error)
}

// APIResponse mirrors the standard API envelope with raw data.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.RequestWithHeaders(method, path, body, token, nil)
}

// DeviceRequest is Request with the X-Device-ID header set.
func (e *Env) DeviceRequest(method, path string, body any, token, deviceID string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.RequestWithHeaders(method, path, body, token, map[string]string{
		middleware.DeviceIDHeader: deviceID,
	})
}

// RequestWithHeaders executes a request with extra headers.
func (e *Env) RequestWithHeaders(method, path string, body any, token string, headers map[string]string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
