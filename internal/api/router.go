package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/app"
	iauth "github.com/charlesng35/tarotgarden/internal/auth"
	"github.com/charlesng35/tarotgarden/internal/cachegate"
	"github.com/charlesng35/tarotgarden/internal/handlers"
	"github.com/charlesng35/tarotgarden/internal/interpret"
	"github.com/charlesng35/tarotgarden/internal/middleware"
	"github.com/charlesng35/tarotgarden/internal/monitoring"
	"github.com/charlesng35/tarotgarden/internal/services"
	"github.com/charlesng35/tarotgarden/internal/usage"
	apperrors "github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// Dependencies are the long-lived components the router wires into handlers.
type Dependencies struct {
	DB          *gorm.DB
	JWT         *iauth.JWTService
	Usage       *usage.Gate
	CacheGate   *cachegate.Gate
	Interpreter *interpret.Interpreter
	// RateStore backs the cross-instance reading limit. Nil disables it.
	RateStore middleware.RateStore
	Clock     clockwork.Clock
	// Redis and Maintenance add health probes when set.
	Redis       monitoring.RedisPinger
	Maintenance monitoring.RunTracker
}

type routeServices struct {
	users         *services.UserService
	subscriptions *services.SubscriptionService
	readings      *services.ReadingService
	accounts      *services.AccountService
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
// Requests no route claims fall through to the cache gate.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Usage == nil {
		return nil, fmt.Errorf("usage gate must be provided")
	}
	if deps.CacheGate == nil {
		return nil, fmt.Errorf("cache gate must be provided")
	}
	if deps.Interpreter == nil {
		return nil, fmt.Errorf("interpreter must be provided")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	svc, err := newRouteServices(deps)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Platform())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(cfg.RateLimit.Middleware(deps.Clock)))

	registerHealthRoutes(r, cfg, deps)
	registerCatalogRoutes(r)
	registerUsageRoutes(r, deps, svc)
	registerReadingRoutes(r, cfg, deps, svc)
	registerSubscriptionRoutes(r, deps, svc)
	registerAccountRoutes(r, deps, svc)

	r.NoMethod(func(c *gin.Context) {
		response.Error(c, apperrors.ErrMethodNotAllowed)
	})
	r.NoRoute(handlers.CacheGate(deps.CacheGate))

	return r, nil
}

func newRouteServices(deps Dependencies) (*routeServices, error) {
	users, err := services.NewUserService(deps.DB, deps.Clock)
	if err != nil {
		return nil, err
	}
	subs, err := services.NewSubscriptionService(deps.DB, deps.Clock)
	if err != nil {
		return nil, err
	}
	readings, err := services.NewReadingService(deps.DB)
	if err != nil {
		return nil, err
	}
	accounts, err := services.NewAccountService(deps.DB, users)
	if err != nil {
		return nil, err
	}
	return &routeServices{
		users:         users,
		subscriptions: subs,
		readings:      readings,
		accounts:      accounts,
	}, nil
}

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, deps Dependencies) {
	prober := monitoring.NewProber(
		monitoring.Database(deps.DB, 0),
		monitoring.CacheGate(deps.CacheGate),
	)
	if deps.Redis != nil {
		prober.Register(monitoring.Redis(deps.Redis, 0))
	}
	if deps.Maintenance != nil {
		prober.Register(monitoring.Maintenance(deps.Maintenance, 0, deps.Clock.Now))
	}

	r.GET("/health", handlers.Health(prober, deps.CacheGate))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}
}

func registerCatalogRoutes(r *gin.Engine) {
	r.GET("/api/spreads", handlers.Spreads())
	r.GET("/api/themes", handlers.Themes())
}
