package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tenantWithBudget(perMinute, burst int) *domain.Tenant {
	return &domain.Tenant{
		ID:                 uuid.New(),
		Slug:               "acme",
		Active:             true,
		Tier:               domain.TierFree,
		RateLimitPerMinute: &perMinute,
		RateLimitBurst:     &burst,
	}
}

func TestTokenBucketBurstThenDeny(t *testing.T) {
	store := NewMemoryStore(0)
	base := time.Now()
	key := "rate_limit:test"

	// burst=10, rate=1/s: ten immediate takes succeed.
	for i := 0; i < 10; i++ {
		_, allowed, err := store.Take(context.Background(), key, 1, 10, base)
		if err != nil {
			t.Fatalf("Take %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("Take %d: denied, want admitted", i)
		}
	}

	// The 11th is denied with roughly one token's worth of wait.
	remaining, allowed, err := store.Take(context.Background(), key, 1, 10, base)
	if err != nil {
		t.Fatalf("Take 11: %v", err)
	}
	if allowed {
		t.Fatal("Take 11: admitted, want denied")
	}
	if hint := retryAfterHint(remaining, 1); hint != time.Second {
		t.Errorf("retry hint = %s, want 1s", hint)
	}

	// After one second exactly one further take is admitted.
	later := base.Add(time.Second)
	_, allowed, err = store.Take(context.Background(), key, 1, 10, later)
	if err != nil {
		t.Fatalf("Take after refill: %v", err)
	}
	if !allowed {
		t.Fatal("Take after refill: denied, want admitted")
	}
	_, allowed, err = store.Take(context.Background(), key, 1, 10, later)
	if err != nil {
		t.Fatalf("second Take after refill: %v", err)
	}
	if allowed {
		t.Fatal("second Take after refill: admitted, want denied")
	}
}

func TestRefillCapsAtBurst(t *testing.T) {
	store := NewMemoryStore(0)
	base := time.Now()
	key := "rate_limit:cap"

	if _, _, err := store.Take(context.Background(), key, 1, 5, base); err != nil {
		t.Fatalf("Take: %v", err)
	}

	// A long idle period refills to burst, not beyond: 5 takes pass, the
	// 6th fails.
	later := base.Add(time.Hour)
	for i := 0; i < 5; i++ {
		if _, allowed, _ := store.Take(context.Background(), key, 1, 5, later); !allowed {
			t.Fatalf("Take %d after idle: denied, want admitted", i)
		}
	}
	if _, allowed, _ := store.Take(context.Background(), key, 1, 5, later); allowed {
		t.Fatal("bucket refilled beyond burst")
	}
}

func TestStateRecreatedAfterEviction(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	base := time.Now()
	key := "rate_limit:evict"

	// Drain the bucket.
	for i := 0; i < 2; i++ {
		store.Take(context.Background(), key, 0.001, 2, base)
	}
	if _, allowed, _ := store.Take(context.Background(), key, 0.001, 2, base); allowed {
		t.Fatal("drained bucket admitted")
	}

	// Past the state TTL the bucket comes back at full burst.
	later := base.Add(2 * time.Minute)
	if _, allowed, _ := store.Take(context.Background(), key, 0.001, 2, later); !allowed {
		t.Fatal("evicted bucket not recreated at full capacity")
	}
}

func TestAdmitDeniesWithRetryHint(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(0), Config{Logger: quietLogger()})
	tenant := tenantWithBudget(60, 2) // 1 token/s, burst 2

	for i := 0; i < 2; i++ {
		res, err := limiter.Admit(context.Background(), tenant)
		if err != nil || !res.Allowed {
			t.Fatalf("Admit %d: res=%+v err=%v", i, res, err)
		}
	}

	res, err := limiter.Admit(context.Background(), tenant)
	if res.Allowed {
		t.Fatal("third Admit allowed, want denied")
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("got %v, want ErrRateLimited", err)
	}
	var limited *LimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("got %T, want *LimitedError", err)
	}
	if limited.RetryAfter < time.Second {
		t.Errorf("retry after = %s, want >= 1s", limited.RetryAfter)
	}
}

func TestConcurrentAdmitsSingleToken(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(0), Config{Logger: quietLogger()})
	tenant := tenantWithBudget(60, 1) // one token in the bucket

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := limiter.Admit(context.Background(), tenant)
			if res.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Errorf("admitted = %d, want exactly 1 of %d concurrent checks", admitted, n)
	}
}

type failingStore struct{}

func (failingStore) Take(ctx context.Context, key string, rate float64, burst int, now time.Time) (float64, bool, error) {
	return 0, false, errors.New("dial tcp: connection refused")
}

func TestDegradationFailOpen(t *testing.T) {
	limiter := NewLimiter(failingStore{}, Config{Policy: FailOpen, Logger: quietLogger()})

	res, err := limiter.Admit(context.Background(), tenantWithBudget(60, 10))
	if err != nil {
		t.Fatalf("fail-open Admit: %v", err)
	}
	if !res.Allowed || !res.Degraded {
		t.Errorf("res = %+v, want allowed and degraded", res)
	}
}

func TestDegradationFailClosed(t *testing.T) {
	limiter := NewLimiter(failingStore{}, Config{Policy: FailClosed, Logger: quietLogger()})

	res, err := limiter.Admit(context.Background(), tenantWithBudget(60, 10))
	if res.Allowed {
		t.Error("fail-closed admitted")
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
	if !res.Degraded {
		t.Error("result not marked degraded")
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("open"); err != nil || p != FailOpen {
		t.Errorf("ParsePolicy(open) = %v, %v", p, err)
	}
	if p, err := ParsePolicy("closed"); err != nil || p != FailClosed {
		t.Errorf("ParsePolicy(closed) = %v, %v", p, err)
	}
	if _, err := ParsePolicy("maybe"); err == nil {
		t.Error("ParsePolicy(maybe) succeeded, want error")
	}
}

func TestTierDefaultsApply(t *testing.T) {
	// No overrides: free tier gives 60/min with burst 10.
	tenant := &domain.Tenant{ID: uuid.New(), Active: true, Tier: domain.TierFree}
	limits := tenant.EffectiveRateLimit()
	if limits.PerMinute != 60 || limits.Burst != 10 {
		t.Errorf("free tier limits = %+v, want 60/min burst 10", limits)
	}

	limiter := NewLimiter(NewMemoryStore(0), Config{Logger: quietLogger()})
	for i := 0; i < 10; i++ {
		if res, err := limiter.Admit(context.Background(), tenant); err != nil || !res.Allowed {
			t.Fatalf("Admit %d under tier default: res=%+v err=%v", i, res, err)
		}
	}
	if res, _ := limiter.Admit(context.Background(), tenant); res.Allowed {
		t.Error("11th request admitted past tier burst")
	}
}
