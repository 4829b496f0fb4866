package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a tenant's subscription tier. It selects the default traffic
// budget when the tenant carries no explicit rate-limit override.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// RateLimit describes a token-bucket budget: sustained requests per minute
// and the burst capacity of the bucket.
type RateLimit struct {
	PerMinute int
	Burst     int
}

// Limits returns the default rate limit for the tier.
func (t Tier) Limits() RateLimit {
	switch t {
	case TierBasic:
		return RateLimit{PerMinute: 120, Burst: 20}
	case TierPremium:
		return RateLimit{PerMinute: 600, Burst: 60}
	case TierEnterprise:
		return RateLimit{PerMinute: 3000, Burst: 200}
	default:
		return RateLimit{PerMinute: 60, Burst: 10}
	}
}

// Tenant represents an isolated customer account. It is the unit of data
// and rate-limit isolation; exactly one active tenant exists per
// slug/subdomain/id.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Subdomain string
	Active    bool
	Tier      Tier

	// Per-tenant overrides. Nil means use the tier default.
	RateLimitPerMinute *int
	RateLimitBurst     *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveRateLimit resolves the tenant's budget: explicit overrides win,
// otherwise the tier default applies.
func (t *Tenant) EffectiveRateLimit() RateLimit {
	limits := t.Tier.Limits()
	if t.RateLimitPerMinute != nil && *t.RateLimitPerMinute > 0 {
		limits.PerMinute = *t.RateLimitPerMinute
	}
	if t.RateLimitBurst != nil && *t.RateLimitBurst > 0 {
		limits.Burst = *t.RateLimitBurst
	}
	return limits
}
