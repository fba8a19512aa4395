package limiter

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := New(cfg)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowExhaustsBurst(t *testing.T) {
	l, _ := newTestLimiter(Config{Rate: 0.1, Burst: 3})

	for i := 0; i < 3; i++ {
		if err := l.Allow("a@example.com"); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if err := l.Allow("a@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.Allow("b@example.com"); err != nil {
		t.Fatalf("other key should be unaffected: %v", err)
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	l, now := newTestLimiter(Config{Rate: 1, Burst: 1})

	if err := l.Allow("k"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := l.Allow("k"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limit, got %v", err)
	}
	*now = now.Add(time.Second)
	if err := l.Allow("k"); err != nil {
		t.Fatalf("after refill: %v", err)
	}
}

func TestAllowChecksEveryKey(t *testing.T) {
	l, _ := newTestLimiter(Config{Rate: 0.01, Burst: 1})

	if err := l.Allow("user", "10.0.0.1"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := l.Allow("other", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected shared ip bucket to be exhausted, got %v", err)
	}
	if err := l.Allow("third", ""); err != nil {
		t.Fatalf("empty key must be ignored: %v", err)
	}
}

func TestResetAndPrune(t *testing.T) {
	l, now := newTestLimiter(Config{Rate: 0.01, Burst: 1, IdleTTL: time.Minute})

	_ = l.Allow("k")
	l.Reset("k")
	if err := l.Allow("k"); err != nil {
		t.Fatalf("after reset: %v", err)
	}

	_ = l.Allow("idle")
	*now = now.Add(2 * time.Minute)
	_ = l.Allow("fresh")
	if got := l.Len(); got != 1 {
		t.Fatalf("expected idle buckets pruned, have %d", got)
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	if err := l.Allow("x"); err != nil {
		t.Fatalf("nil limiter: %v", err)
	}
	l.Reset("x")
	if l.Len() != 0 {
		t.Fatal("nil limiter should report zero keys")
	}
}

func TestAllowConcurrent(t *testing.T) {
	l := New(Config{Rate: 0.001, Burst: 10})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if allowed != 10 {
		t.Fatalf("expected exactly burst allowances, got %d", allowed)
	}
}
