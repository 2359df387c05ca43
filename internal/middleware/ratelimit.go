package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/charlesng35/tarotgarden/pkg/errors"
	"github.com/charlesng35/tarotgarden/pkg/response"
)

// RateLimitConfig sizes the per-client token buckets.
type RateLimitConfig struct {
	// RequestsPerSecond is the steady refill rate. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops buckets that have not been used for this long.
	IdleTTL time.Duration
	Clock   clockwork.Clock
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit limits each (client IP, route) pair with a token bucket.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.RequestsPerSecond))
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastSweep = cfg.Clock.Now()
	)

	return func(c *gin.Context) {
		now := cfg.Clock.Now()
		key := c.ClientIP() + "|" + c.FullPath()

		mu.Lock()
		if now.Sub(lastSweep) >= cfg.IdleTTL {
			for k, b := range buckets {
				if now.Sub(b.lastSeen) >= cfg.IdleTTL {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			buckets[key] = b
		}
		b.lastSeen = now
		allowed := b.limiter.AllowN(now, 1)
		remaining := int(b.limiter.TokensAt(now))
		mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, remaining)))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(1/cfg.RequestsPerSecond))))
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}
