package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Rule is a token bucket refilled at Rate tokens per second up to Burst.
// A zero Rate or Burst disables limiting.
type Rule struct {
	Rate  float64
	Burst int
}

func (r Rule) disabled() bool { return r.Rate <= 0 || r.Burst <= 0 }

// Limiter decides whether the caller identified by key may proceed and,
// if not, how long until it may.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (bool, time.Duration)
}

// RateLimitOptions maps route groups to rules. Group returns "" for routes
// that are not limited.
type RateLimitOptions struct {
	Rules   map[string]Rule
	Group   func(*gin.Context) string
	Limiter Limiter
}

// RateLimit limits per authenticated user, falling back to client IP.
func RateLimit(opts RateLimitOptions) gin.HandlerFunc {
	if opts.Limiter == nil {
		opts.Limiter = NewLocalLimiter(nil)
	}
	return func(c *gin.Context) {
		if opts.Group == nil {
			c.Next()
			return
		}
		group := strings.TrimSpace(opts.Group(c))
		rule, ok := opts.Rules[group]
		if group == "" || !ok || rule.disabled() {
			c.Next()
			return
		}
		if allowed, wait := opts.Limiter.Allow(c.Request.Context(), callerKey(c)+"|"+group, rule); !allowed {
			writeRateLimited(c, wait)
			return
		}
		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if id := strings.TrimSpace(UserIDFromContext(c)); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

func writeRateLimited(c *gin.Context, wait time.Duration) {
	ms := wait.Milliseconds()
	if ms <= 0 {
		ms = 1000
	}
	c.Header("Retry-After", strconv.FormatInt(int64(math.Ceil(float64(ms)/1000)), 10))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":        "rate_limited",
		"retryAfterMs": ms,
	})
}

const (
	localIdleTTL       = 10 * time.Minute
	localSweepInterval = time.Minute
)

// LocalLimiter keeps one token bucket per key in process memory.
// Buckets idle for longer than ten minutes are dropped.
type LocalLimiter struct {
	mu        sync.Mutex
	entries   map[string]*localEntry
	now       func() time.Time
	lastSweep time.Time
}

type localEntry struct {
	lim  *rate.Limiter
	rule Rule
	seen time.Time
}

// NewLocalLimiter builds a LocalLimiter. now defaults to time.Now.
func NewLocalLimiter(now func() time.Time) *LocalLimiter {
	if now == nil {
		now = time.Now
	}
	return &LocalLimiter{entries: make(map[string]*localEntry), now: now}
}

func (l *LocalLimiter) Allow(_ context.Context, key string, rule Rule) (bool, time.Duration) {
	if l == nil || rule.disabled() {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok || e.rule != rule {
		e = &localEntry{lim: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst), rule: rule}
		l.entries[key] = e
	}
	e.seen = now

	res := e.lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// Len reports how many buckets are tracked.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < localSweepInterval {
		return
	}
	l.lastSweep = now
	for key, e := range l.entries {
		if now.Sub(e.seen) > localIdleTTL {
			delete(l.entries, key)
		}
	}
}
