package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/utils"
)

type RateLimitConfig struct {
	Burst             int              // tokens a client starts with
	RefillPerIPPerMin int              // tokens regained per minute
	MaxEntries        int              // clients tracked before idle ones are evicted, 0 = unbounded
	SweepInterval     time.Duration    // how often idle clients are evicted
	IdleTTL           time.Duration    // a client unseen for this long is forgotten
	TrustProxy        bool             // resolve IP from proxy headers when true
	Now               func() time.Time // defaults to time.Now
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	c.Burst = max(c.Burst, 1)
	c.RefillPerIPPerMin = max(c.RefillPerIPPerMin, 1)
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// decision is the outcome of one take.
type decision struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
}

type bucket struct {
	tokens float64
	last   time.Time
}

// tokenBuckets keeps one bucket per client key.
type tokenBuckets struct {
	cfg       RateLimitConfig
	perSecond float64

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newTokenBuckets(cfg RateLimitConfig) *tokenBuckets {
	return &tokenBuckets{
		cfg:       cfg,
		perSecond: float64(cfg.RefillPerIPPerMin) / 60,
		buckets:   make(map[string]*bucket),
		lastSweep: cfg.Now(),
	}
}

func (t *tokenBuckets) take(key string, now time.Time) decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	full := t.cfg.MaxEntries > 0 && len(t.buckets) >= t.cfg.MaxEntries
	if full || now.Sub(t.lastSweep) >= t.cfg.SweepInterval {
		t.sweepLocked(now)
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(t.cfg.Burst), last: now}
		t.buckets[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(t.cfg.Burst), b.tokens+elapsed*t.perSecond)
	}
	b.last = now

	if b.tokens < 1 {
		wait := math.Ceil((1 - b.tokens) / t.perSecond)
		return decision{retryAfter: time.Duration(max(wait, 1)) * time.Second}
	}
	b.tokens--
	return decision{allowed: true, remaining: int(b.tokens)}
}

// sweepLocked forgets clients whose bucket has been idle past IdleTTL.
// A refilled idle bucket is indistinguishable from a new one.
func (t *tokenBuckets) sweepLocked(now time.Time) {
	for key, b := range t.buckets {
		if now.Sub(b.last) > t.cfg.IdleTTL {
			delete(t.buckets, key)
		}
	}
	t.lastSweep = now
}

// RateLimit is a per-client token bucket. Mutating routes share one limiter
// so that a looping client cannot keep the persistence slot busy.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	buckets := newTokenBuckets(cfg)
	limit := strconv.Itoa(cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := buckets.take(utils.ClientIP(r, cfg.TrustProxy), cfg.Now())

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			if !d.allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(d.retryAfter/time.Second)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many requests"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
