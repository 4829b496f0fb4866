package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/platformkit/tenantgate/pkg/domain"
)

const (
	// DefaultStoreTimeout bounds one store round trip. A timeout is
	// treated as store-unavailable and handed to the degradation policy,
	// never as an indefinite suspension.
	DefaultStoreTimeout = 2 * time.Second

	// DefaultStateTTL is how long idle bucket state survives in the
	// store. An evicted bucket is recreated at full burst capacity.
	DefaultStateTTL = 10 * time.Minute
)

// Policy selects degradation behavior when the shared store is
// unreachable. This is explicit configuration, consulted only at the
// single point where the store call fails.
type Policy string

const (
	// FailOpen admits and logs a warning. Default; favors availability.
	FailOpen Policy = "open"
	// FailClosed denies all requests. Favors safety.
	FailClosed Policy = "closed"
)

// ParsePolicy converts a config string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	default:
		return "", fmt.Errorf("unknown degradation policy %q (want %q or %q)", s, FailOpen, FailClosed)
	}
}

// Store is the shared atomic key/value store backing tenant buckets.
// Take must perform refill-then-decrement as a single atomic operation:
// two concurrent calls for one remaining token must never both succeed.
type Store interface {
	// Take refills the bucket keyed by key at rate tokens/second up to
	// burst, then attempts to consume one token. It returns the token
	// count remaining after the attempt and whether the take succeeded.
	Take(ctx context.Context, key string, rate float64, burst int, now time.Time) (remaining float64, allowed bool, err error)
}

// Result is an admission decision.
type Result struct {
	Allowed bool
	// RetryAfter hints when a denied caller may retry. Zero when allowed.
	RetryAfter time.Duration
	// Degraded marks decisions taken under the degradation policy while
	// the store was unreachable.
	Degraded bool
}

// LimitedError is a rate-limit denial carrying the retry hint.
type LimitedError struct {
	RetryAfter time.Duration
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *LimitedError) Unwrap() error { return domain.ErrRateLimited }

// Config holds limiter configuration.
type Config struct {
	Policy       Policy
	StoreTimeout time.Duration
	Logger       *slog.Logger
}

// Limiter enforces a per-tenant token-bucket budget against a shared
// store. It only rejects, it never blocks or queues.
type Limiter struct {
	store   Store
	policy  Policy
	timeout time.Duration
	logger  *slog.Logger
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(store Store, cfg Config) *Limiter {
	if cfg.Policy == "" {
		cfg.Policy = FailOpen
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Limiter{
		store:   store,
		policy:  cfg.Policy,
		timeout: cfg.StoreTimeout,
		logger:  cfg.Logger,
	}
}

// Admit charges one unit of the tenant's budget. The decrement is the
// chargeable event: it is not rolled back if a later pipeline stage
// rejects the request, since the tenant still caused the load. Denials
// return a *LimitedError wrapping domain.ErrRateLimited.
func (l *Limiter) Admit(ctx context.Context, tenant *domain.Tenant) (Result, error) {
	limits := tenant.EffectiveRateLimit()
	rate := float64(limits.PerMinute) / 60.0
	key := "rate_limit:" + tenant.ID.String()

	storeCtx, cancel := context.WithTimeout(ctx, l.timeout)
	remaining, allowed, err := l.store.Take(storeCtx, key, rate, limits.Burst, time.Now())
	cancel()
	if err != nil {
		return l.degrade(tenant, err)
	}

	if allowed {
		return Result{Allowed: true}, nil
	}

	retryAfter := retryAfterHint(remaining, rate)
	return Result{Allowed: false, RetryAfter: retryAfter}, &LimitedError{RetryAfter: retryAfter}
}

// degrade resolves a store failure per the configured policy. This is the
// only place store errors are handled; they never reach the caller as
// domain.ErrStoreUnavailable.
func (l *Limiter) degrade(tenant *domain.Tenant, cause error) (Result, error) {
	switch l.policy {
	case FailClosed:
		l.logger.Warn("rate-limit store unreachable, failing closed",
			"tenant_id", tenant.ID,
			"error", cause,
		)
		retryAfter := time.Second
		return Result{Allowed: false, RetryAfter: retryAfter, Degraded: true},
			&LimitedError{RetryAfter: retryAfter}
	default:
		l.logger.Warn("rate-limit store unreachable, failing open",
			"tenant_id", tenant.ID,
			"error", cause,
		)
		return Result{Allowed: true, Degraded: true}, nil
	}
}

// retryAfterHint computes how long until one full token is available,
// rounded up to whole seconds so the Retry-After header is always >= 1.
func retryAfterHint(remaining, rate float64) time.Duration {
	if rate <= 0 {
		return time.Second
	}
	needed := 1 - remaining
	if needed < 0 {
		needed = 0
	}
	secs := math.Ceil(needed / rate)
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}
