package cachegate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charlesng35/tarotgarden/pkg/logger"
	"github.com/charlesng35/tarotgarden/pkg/metrics"
)

// Mode selects the request policy for a deployment.
type Mode string

const (
	// ModeCache serves seeded and previously fetched responses from the current generation.
	ModeCache Mode = "cache"
	// ModeNetwork always goes to the network and writes cacheable responses through.
	ModeNetwork Mode = "network"
	// ModeUnregister deletes every generation on activation and then steps aside.
	ModeUnregister Mode = "unregister"
)

// ParseMode validates a configured mode. An empty string selects ModeCache.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCache:
		return ModeCache, nil
	case ModeNetwork:
		return ModeNetwork, nil
	case ModeUnregister:
		return ModeUnregister, nil
	default:
		return "", fmt.Errorf("cache gate: unknown mode %q", s)
	}
}

// State is the lifecycle state of the gate.
type State string

const (
	StateIdle       State = "idle"
	StateInstalling State = "installing"
	StateWaiting    State = "waiting"
	StateActivating State = "activating"
	StateActive     State = "active"
	StateRedundant  State = "redundant"
)

// DefaultSeeds are precached on install in cache mode.
var DefaultSeeds = []string{"/", "/index.html", "/manifest.json", "/assets/styles/main.css"}

var (
	// ErrInvalidState is returned when a lifecycle step runs out of order.
	ErrInvalidState = errors.New("cache gate: invalid lifecycle state")
	// ErrSeedNotCacheable is returned when a seed fetch yields a response that cannot be stored.
	ErrSeedNotCacheable = errors.New("cache gate: seed response not cacheable")
)

// Config describes one deployment of the gate.
type Config struct {
	Mode    Mode
	Prefix  string
	Version int
	Seeds   []string
}

// CacheName returns the generation name, e.g. tarot-garden-v1.
func (c Config) CacheName() string {
	prefix := strings.TrimSpace(c.Prefix)
	if prefix == "" {
		prefix = "tarot-garden"
	}
	version := c.Version
	if version <= 0 {
		version = 1
	}
	return fmt.Sprintf("%s-v%d", prefix, version)
}

// Gate is an offline-first response cache in front of a single origin.
type Gate struct {
	cfg     Config
	name    string
	fetcher Fetcher
	storage Storage
	log     *zap.Logger

	mu    sync.RWMutex
	state State
}

// New builds a gate. Call Install and Activate before it intercepts anything.
func New(cfg Config, fetcher Fetcher, storage Storage) (*Gate, error) {
	if fetcher == nil {
		return nil, errors.New("cache gate: fetcher is required")
	}
	if storage == nil {
		return nil, errors.New("cache gate: storage is required")
	}
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode
	if cfg.Seeds == nil {
		cfg.Seeds = DefaultSeeds
	}

	return &Gate{
		cfg:     cfg,
		name:    cfg.CacheName(),
		fetcher: fetcher,
		storage: storage,
		log:     logger.WithModule("cachegate").With(zap.String("mode", string(mode))),
		state:   StateIdle,
	}, nil
}

// Name returns the current generation name.
func (g *Gate) Name() string { return g.name }

// Mode returns the configured mode.
func (g *Gate) Mode() Mode { return g.cfg.Mode }

// State returns the lifecycle state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gate) transition(from, to State) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != from {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, g.state, from)
	}
	g.state = to
	return nil
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Install precaches the seed list into the current generation (cache mode only).
// Either every seed is stored or no store is left behind.
func (g *Gate) Install(ctx context.Context) error {
	if err := g.transition(StateIdle, StateInstalling); err != nil {
		return err
	}

	if g.cfg.Mode == ModeCache {
		if err := g.precache(ctx); err != nil {
			g.setState(StateIdle)
			return err
		}
	}

	g.setState(StateWaiting)
	g.log.Info("cache gate installed", zap.String("cache", g.name))
	return nil
}

func (g *Gate) precache(ctx context.Context) error {
	responses := make([]*Response, len(g.cfg.Seeds))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, seed := range g.cfg.Seeds {
		i, seed := i, seed
		eg.Go(func() error {
			req, err := http.NewRequestWithContext(egCtx, http.MethodGet, seed, nil)
			if err != nil {
				return err
			}
			resp, err := g.fetcher.Fetch(egCtx, req)
			if err != nil {
				return fmt.Errorf("cache gate: fetch seed %s: %w", seed, err)
			}
			if !resp.Cacheable() {
				return fmt.Errorf("%w: %s returned %d (%s)", ErrSeedNotCacheable, seed, resp.Status, resp.Type)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	store, err := g.storage.Open(ctx, g.name)
	if err != nil {
		return fmt.Errorf("cache gate: open %s: %w", g.name, err)
	}
	for i, seed := range g.cfg.Seeds {
		req, _ := http.NewRequest(http.MethodGet, seed, nil)
		if err := store.Put(ctx, RequestKey(http.MethodGet, req.URL), responses[i]); err != nil {
			_, delErr := g.storage.Delete(ctx, g.name)
			return multierr.Append(fmt.Errorf("cache gate: store seed %s: %w", seed, err), delErr)
		}
	}
	return nil
}

// Activate finishes the lifecycle. Cache mode purges stale generations; unregister mode
// deletes every generation and leaves the gate redundant.
func (g *Gate) Activate(ctx context.Context) error {
	if err := g.transition(StateWaiting, StateActivating); err != nil {
		return err
	}

	switch g.cfg.Mode {
	case ModeCache:
		purged, err := g.PurgeStale(ctx)
		if err != nil {
			g.setState(StateWaiting)
			return err
		}
		g.log.Info("purged stale cache generations", zap.Strings("caches", purged))
	case ModeUnregister:
		if _, err := g.deleteWhere(ctx, func(string) bool { return true }); err != nil {
			g.setState(StateWaiting)
			return err
		}
		g.setState(StateRedundant)
		g.log.Info("cache gate unregistered")
		return nil
	}

	metrics.CacheGateGeneration.Set(float64(g.cfg.Version))
	g.setState(StateActive)
	g.log.Info("cache gate active", zap.String("cache", g.name))
	return nil
}

// Start runs Install then Activate.
func (g *Gate) Start(ctx context.Context) error {
	if err := g.Install(ctx); err != nil {
		return err
	}
	return g.Activate(ctx)
}

// PurgeStale deletes every store other than the current generation.
func (g *Gate) PurgeStale(ctx context.Context) ([]string, error) {
	return g.deleteWhere(ctx, func(name string) bool { return name != g.name })
}

func (g *Gate) deleteWhere(ctx context.Context, match func(string) bool) ([]string, error) {
	names, err := g.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache gate: list caches: %w", err)
	}

	var (
		deleted []string
		errs    error
	)
	for _, name := range names {
		if !match(name) {
			continue
		}
		if _, err := g.storage.Delete(ctx, name); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		deleted = append(deleted, name)
	}
	return deleted, errs
}

// Fetch applies the mode's request policy. Until activation, after unregistering and for
// methods other than GET and HEAD the request goes straight to the network.
func (g *Gate) Fetch(ctx context.Context, req *http.Request) (*Response, error) {
	if g.State() != StateActive || (req.Method != http.MethodGet && req.Method != http.MethodHead) {
		g.count("bypass")
		return g.fetcher.Fetch(ctx, req)
	}

	key := RequestKey(req.Method, req.URL)

	if g.cfg.Mode == ModeCache {
		if resp, ok := g.match(ctx, key); ok {
			g.count("hit")
			return resp, nil
		}
	}

	resp, err := g.fetcher.Fetch(ctx, req)
	if err != nil {
		if g.cfg.Mode == ModeCache && isNavigation(req) {
			if fallback, ok := g.match(ctx, RequestKey(http.MethodGet, nil)); ok {
				g.count("fallback")
				g.log.Warn("network unavailable, serving cached document", zap.String("path", req.URL.Path), zap.Error(err))
				return fallback, nil
			}
		}
		g.count("error")
		return nil, err
	}

	if !resp.Cacheable() {
		g.count("uncached")
		return resp, nil
	}

	g.put(ctx, key, resp.Clone())
	g.count("miss")
	return resp, nil
}

func (g *Gate) match(ctx context.Context, key string) (*Response, bool) {
	store, err := g.storage.Open(ctx, g.name)
	if err != nil {
		g.log.Error("failed to open cache", zap.Error(err))
		return nil, false
	}
	resp, ok, err := store.Match(ctx, key)
	if err != nil {
		g.log.Error("cache match failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return resp, ok
}

func (g *Gate) put(ctx context.Context, key string, resp *Response) {
	store, err := g.storage.Open(ctx, g.name)
	if err == nil {
		err = store.Put(ctx, key, resp)
	}
	if err != nil {
		g.log.Error("failed to store response", zap.String("key", key), zap.Error(err))
	}
}

func (g *Gate) count(outcome string) {
	metrics.CacheGateRequests.WithLabelValues(string(g.cfg.Mode), outcome).Inc()
}

// ServeHTTP fetches r through the gate and writes the result. Fetch failures become a
// 502 in the API error envelope.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := g.Fetch(r.Context(), r)
	if err != nil {
		g.log.Warn("fetch failed", zap.String("path", r.URL.Path), zap.Error(err))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]string{"code": "BAD_GATEWAY", "message": "Upstream unavailable"},
		})
		return
	}
	WriteResponse(w, r, resp)
}

// WriteResponse copies resp to w, omitting the body for HEAD requests. Stored headers
// replace any value already set on w.
func WriteResponse(w http.ResponseWriter, req *http.Request, resp *Response) {
	for k, values := range resp.Header {
		if len(values) == 0 {
			continue
		}
		w.Header()[http.CanonicalHeaderKey(k)] = append([]string(nil), values...)
	}
	w.Header().Set("X-Cache-Gate", string(resp.Type))
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if req.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}
