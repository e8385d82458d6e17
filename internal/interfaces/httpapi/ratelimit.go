package httpapi

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/riskibarqy/armory-onboarding/internal/platform/logging"
)

const defaultLimiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per principal, falling back to the client IP for
// anonymous requests.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	idle     time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewRateLimiter returns nil when perSecond is not positive; a nil limiter lets every
// request through.
func NewRateLimiter(perSecond float64, burst int, logger *logging.Logger) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		idle:     defaultLimiterIdle,
		logger:   logger,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Sweep drops buckets that have not been used for the idle period.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Limit wraps a handler. It must run inside RequireAuth to key on the principal.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.RateLimiter.Limit")
		defer span.End()

		key := "ip:" + resolveClientIP(ctx, r)
		if principal, ok := principalFromContext(ctx); ok && principal.UserID != "" {
			key = "user:" + principal.UserID
		}

		if !rl.allow(key) {
			rl.logger.WarnContext(ctx, "rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path)
			writeError(ctx, w, fmt.Errorf("%w: slow down", errRateLimited))
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
