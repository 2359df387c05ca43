package security

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/tarotgarden/internal/app"
	"github.com/charlesng35/tarotgarden/internal/models"
)

// CheckStatus captures the outcome of a security audit check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check contains the result of a single audit verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates all checks with a simple status summary.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Failed reports whether any check failed.
func (r Result) Failed() bool {
	return r.Summary[string(StatusFail)] > 0
}

// AuditService evaluates the deployment configuration for unsafe settings.
type AuditService struct {
	db  *gorm.DB
	cfg *app.Config
	now func() time.Time
}

// NewAuditService constructs the audit service. A nil db skips the subscription check.
func NewAuditService(db *gorm.DB, cfg *app.Config) *AuditService {
	return &AuditService{db: db, cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used in results (primarily for testing).
func (s *AuditService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Run executes all audit checks and returns their outcome.
func (s *AuditService) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	var checks []Check
	if s.cfg == nil {
		checks = []Check{{
			ID:          "configuration",
			Status:      StatusFail,
			Message:     "Configuration not loaded.",
			Remediation: "Load configuration before running the security audit.",
		}}
	} else {
		checks = []Check{
			s.checkJWTSecret(),
			s.checkTokenTTL(),
			s.checkInterpreter(),
			s.checkCacheOrigin(),
			s.checkRedisTransport(),
			s.checkLapsedSubscriptions(ctx),
		}
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: s.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

func (s *AuditService) checkJWTSecret() Check {
	length := len(strings.TrimSpace(s.cfg.Auth.JWT.Secret))

	switch {
	case length == 0:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusFail,
			Message:     "Missing JWT signing secret.",
			Remediation: "Set GARDEN_AUTH_JWT_SECRET to the auth provider's signing secret.",
		}
	case length < 32:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusFail,
			Message:     fmt.Sprintf("JWT signing secret is too short (%d bytes).", length),
			Remediation: "Use a randomly generated secret of at least 32 bytes.",
		}
	default:
		return Check{
			ID:      "jwt_secret_strength",
			Status:  StatusPass,
			Message: fmt.Sprintf("JWT signing secret length is %d bytes.", length),
			Details: map[string]any{"length": length},
		}
	}
}

func (s *AuditService) checkTokenTTL() Check {
	const maxRecommended = 24 * time.Hour

	ttl := s.cfg.Auth.JWT.TTL
	if ttl > maxRecommended {
		return Check{
			ID:          "access_token_ttl",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Access token TTL (%s) exceeds recommended maximum (%s).", ttl, maxRecommended),
			Remediation: "Reduce auth.jwt.access_token_ttl; tokens issued by gardenctl stay valid that long.",
			Details:     map[string]any{"ttl": ttl.String()},
		}
	}
	return Check{
		ID:      "access_token_ttl",
		Status:  StatusPass,
		Message: fmt.Sprintf("Access token TTL is %s.", s.cfg.Auth.JWTServiceConfig().AccessTokenTTL),
	}
}

func (s *AuditService) checkInterpreter() Check {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.Interpret.Provider))

	switch provider {
	case "", "mock":
		return Check{
			ID:          "interpret_provider",
			Status:      StatusWarn,
			Message:     "Readings use the offline mock interpreter.",
			Remediation: "Set interpret.provider to gemini and provide interpret.api_key.",
		}
	case "gemini":
		if strings.TrimSpace(s.cfg.Interpret.APIKey) == "" {
			return Check{
				ID:          "interpret_provider",
				Status:      StatusFail,
				Message:     "Gemini provider selected without an API key.",
				Remediation: "Set GARDEN_INTERPRET_API_KEY.",
			}
		}
		return Check{ID: "interpret_provider", Status: StatusPass, Message: "Gemini interpreter configured."}
	default:
		return Check{
			ID:          "interpret_provider",
			Status:      StatusFail,
			Message:     fmt.Sprintf("Unknown interpret provider %q.", provider),
			Remediation: "Use gemini or mock.",
		}
	}
}

func (s *AuditService) checkCacheOrigin() Check {
	origin := strings.TrimSpace(s.cfg.CacheGate.Origin)
	if origin == "" {
		return Check{ID: "cache_gate_origin", Status: StatusPass, Message: "Cache gate serves the embedded web build."}
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return Check{
			ID:          "cache_gate_origin",
			Status:      StatusFail,
			Message:     fmt.Sprintf("Cache gate origin %q is not an absolute URL.", origin),
			Remediation: "Use an absolute https URL or leave cache_gate.origin empty.",
		}
	}
	if u.Scheme != "https" && !isLoopback(u.Hostname()) {
		return Check{
			ID:          "cache_gate_origin",
			Status:      StatusWarn,
			Message:     "Cache gate origin is fetched over plain HTTP.",
			Remediation: "Serve the web origin over https.",
			Details:     map[string]any{"origin": origin},
		}
	}
	return Check{ID: "cache_gate_origin", Status: StatusPass, Message: "Cache gate origin uses a secure transport."}
}

func (s *AuditService) checkRedisTransport() Check {
	redisCfg := s.cfg.Cache.Redis
	if !redisCfg.Enabled {
		return Check{ID: "redis_transport", Status: StatusPass, Message: "Redis disabled."}
	}

	host, _, err := net.SplitHostPort(redisCfg.Address)
	if err != nil {
		host = redisCfg.Address
	}
	if !redisCfg.TLS && !isLoopback(host) {
		return Check{
			ID:          "redis_transport",
			Status:      StatusWarn,
			Message:     "Redis is reached over an unencrypted connection.",
			Remediation: "Enable cache.redis.tls for remote Redis servers.",
			Details:     map[string]any{"address": redisCfg.Address},
		}
	}
	return Check{ID: "redis_transport", Status: StatusPass, Message: "Redis transport acceptable."}
}

func (s *AuditService) checkLapsedSubscriptions(ctx context.Context) Check {
	if s.db == nil {
		return Check{
			ID:          "lapsed_subscriptions",
			Status:      StatusWarn,
			Message:     "Database unavailable; unable to inspect subscriptions.",
			Remediation: "Ensure database connectivity before running the audit.",
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.SubscriptionActive, s.now().UTC()).
		Count(&count).Error; err != nil {
		return Check{
			ID:          "lapsed_subscriptions",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Could not inspect subscriptions: %v", err),
			Remediation: "Retry after resolving database errors.",
		}
	}

	if count > 0 && !s.cfg.Maintenance.Enabled {
		return Check{
			ID:          "lapsed_subscriptions",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("%d active subscriptions are past their expiry and maintenance is disabled.", count),
			Remediation: "Enable maintenance so lapsed subscriptions are marked expired.",
			Details:     map[string]any{"count": count},
		}
	}
	return Check{
		ID:      "lapsed_subscriptions",
		Status:  StatusPass,
		Message: "No lapsed subscriptions awaiting cleanup.",
		Details: map[string]any{"count": count},
	}
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
