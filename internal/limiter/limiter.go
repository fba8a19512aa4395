package limiter

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a key has exhausted its bucket.
var ErrRateLimited = errors.New("rate limited")

// Config holds login throttle tuning parameters.
type Config struct {
	// Rate is the sustained number of attempts per second per key.
	Rate float64
	// Burst is the bucket size per key.
	Burst int
	// IdleTTL is how long an untouched bucket is kept before pruning.
	IdleTTL time.Duration
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter is an in-process token bucket keyed by an arbitrary string,
// typically a normalized email or a client IP. The zero value is not usable;
// construct with [New].
type Limiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastPrune time.Time
}

// New returns a [Limiter]. A nil limiter allows everything, so callers may
// keep a nil *Limiter when throttling is disabled.
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes one token for each non-empty key. It fails with
// [ErrRateLimited] as soon as one key is out of tokens.
func (l *Limiter) Allow(keys ...string) error {
	if l == nil {
		return nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	for _, key := range keys {
		if key == "" {
			continue
		}
		b, ok := l.buckets[key]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(rate.Limit(l.cfg.Rate), l.cfg.Burst)}
			l.buckets[key] = b
		}
		b.seen = now
		if !b.lim.AllowN(now, 1) {
			return ErrRateLimited
		}
	}
	return nil
}

// Reset forgets the buckets for keys, e.g. after a successful login.
func (l *Limiter) Reset(keys ...string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		delete(l.buckets, key)
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.cfg.IdleTTL {
		return
	}
	l.lastPrune = now
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
}
