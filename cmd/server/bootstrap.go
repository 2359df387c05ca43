package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/api"
	"github.com/charlesng35/tarotgarden/internal/app"
	"github.com/charlesng35/tarotgarden/internal/app/maintenance"
	iauth "github.com/charlesng35/tarotgarden/internal/auth"
	"github.com/charlesng35/tarotgarden/internal/cache"
	"github.com/charlesng35/tarotgarden/internal/cachegate"
	"github.com/charlesng35/tarotgarden/internal/database"
	"github.com/charlesng35/tarotgarden/internal/interpret"
	"github.com/charlesng35/tarotgarden/internal/middleware"
	"github.com/charlesng35/tarotgarden/internal/security"
	"github.com/charlesng35/tarotgarden/internal/usage"
	"github.com/charlesng35/tarotgarden/pkg/logger"
	"github.com/charlesng35/tarotgarden/web"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Usage     *usage.Gate
	CacheGate *cachegate.Gate
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises databases, caches, gates, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	clock := clockwork.NewRealClock()

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	logAudit(ctx, security.NewAuditService(stack.DB, cfg), log)

	dbStore := cache.NewDatabaseStore(stack.DB, clock)

	if needsRedis(cfg) {
		if stack.Redis, err = cache.NewRedisClient(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed operations", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	usageStore, err := selectUsageStore(cfg, stack.Redis, dbStore, clock, log)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Usage.Location()
	if err != nil {
		return nil, err
	}
	stack.Usage, err = usage.NewGate(usageStore, usage.WithClock(clock), usage.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("initialise usage gate: %w", err)
	}

	stack.CacheGate, err = buildCacheGate(cfg, stack.Redis)
	if err != nil {
		return nil, err
	}
	if err := stack.CacheGate.Start(ctx); err != nil {
		// the gate keeps bypassing until a later deployment installs cleanly
		log.Error("cache gate failed to start; serving from network", zap.Error(err))
	} else {
		log.Info("cache gate active",
			zap.String("name", stack.CacheGate.Name()),
			zap.String("mode", string(stack.CacheGate.Mode())),
		)
	}

	interpreter, err := interpret.New(ctx, cfg.Interpret.Options())
	if err != nil {
		return nil, fmt.Errorf("initialise interpreter: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.DB,
			maintenance.WithSchedule(cfg.Maintenance.Schedule),
			maintenance.WithExpiredEntries(dbStore),
			maintenance.WithStaleGenerations(stack.CacheGate),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	if stack.Redis != nil {
		stack.RateStore = middleware.NewStoreRateStore(cache.NewRedisStore(stack.Redis))
	} else {
		stack.RateStore = middleware.NewStoreRateStore(dbStore)
	}

	deps := api.Dependencies{
		DB:          stack.DB,
		JWT:         jwtSvc,
		Usage:       stack.Usage,
		CacheGate:   stack.CacheGate,
		Interpreter: interpreter,
		RateStore:   stack.RateStore,
		Clock:       clock,
	}
	if stack.Redis != nil {
		deps.Redis = stack.Redis
	}
	if stack.Cleaner != nil {
		deps.Maintenance = stack.Cleaner
	}

	stack.Router, err = api.NewRouter(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func logAudit(ctx context.Context, svc *security.AuditService, log *zap.Logger) {
	result := svc.Run(ctx)
	for _, check := range result.Checks {
		fields := []zap.Field{zap.String("check", check.ID), zap.String("remediation", check.Remediation)}
		switch check.Status {
		case security.StatusFail:
			log.Error(check.Message, fields...)
		case security.StatusWarn:
			log.Warn(check.Message, fields...)
		}
	}
}

func needsRedis(cfg *app.Config) bool {
	if cfg.Cache.Redis.Enabled {
		return true
	}
	usageKind, _ := cfg.Usage.StoreKind()
	storageKind, _ := cfg.CacheGate.StorageKind()
	return usageKind == app.StoreRedis || storageKind == app.StoreRedis
}

func selectUsageStore(cfg *app.Config, client *redis.Client, dbStore *cache.DatabaseStore, clock clockwork.Clock, log *zap.Logger) (cache.Store, error) {
	kind, err := cfg.Usage.StoreKind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case app.StoreMemory:
		return cache.NewMemoryStore(clock), nil
	case app.StoreRedis:
		if client != nil {
			return cache.NewRedisStore(client), nil
		}
		log.Warn("usage.store is redis but redis is unavailable; using the database")
	}
	return dbStore, nil
}

func buildCacheGate(cfg *app.Config, client *redis.Client) (*cachegate.Gate, error) {
	gateCfg, err := cfg.CacheGate.GateConfig()
	if err != nil {
		return nil, err
	}

	var fetcher cachegate.Fetcher
	if origin := strings.TrimSpace(cfg.CacheGate.Origin); origin != "" {
		if fetcher, err = cachegate.NewHTTPFetcher(origin, nil); err != nil {
			return nil, err
		}
	} else {
		dist, err := web.FS()
		if err != nil {
			return nil, fmt.Errorf("open embedded web build: %w", err)
		}
		fetcher = cachegate.NewHandlerFetcher(web.Handler(dist))
	}

	kind, err := cfg.CacheGate.StorageKind()
	if err != nil {
		return nil, err
	}
	var storage cachegate.Storage = cachegate.NewMemoryStorage()
	if kind == app.StoreRedis && client != nil {
		storage = cachegate.NewRedisStorage(client)
	}

	return cachegate.New(gateCfg, fetcher, storage)
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
		s.Cleaner = nil
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
		s.Redis = nil
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.Connection()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(dbCfg.Driver)))

	return db, nil
}
