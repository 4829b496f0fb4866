package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// DefaultLookupTimeout bounds a single repository call so a hung store
// cannot stall the admission pipeline.
const DefaultLookupTimeout = 2 * time.Second

// Repository is the external tenant store consumed by the resolver.
type Repository interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}

// Hints carries the tenant identifiers extracted from a request, in
// resolution priority order: explicit slug header, host subdomain,
// explicit id header.
type Hints struct {
	Slug string
	Host string
	ID   string
}

// Config holds resolver configuration.
type Config struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
	LookupTimeout   time.Duration
	Logger          *slog.Logger
}

// Resolver maps request hints to an active tenant. Positive lookups are
// cached with a short TTL; deactivation events must call Invalidate.
type Resolver struct {
	repo          Repository
	cache         *lookupCache
	lookupTimeout time.Duration
	logger        *slog.Logger
}

// NewResolver creates a resolver over the given repository.
func NewResolver(repo Repository, cfg Config) *Resolver {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resolver{
		repo:          repo,
		cache:         newLookupCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		lookupTimeout: cfg.LookupTimeout,
		logger:        cfg.Logger,
	}
}

// Resolve finds the tenant the hints point at. First matching hint wins.
// Returns domain.ErrTenantNotFound when no hint resolves and
// domain.ErrTenantInactive when the resolved tenant is deactivated.
func (r *Resolver) Resolve(ctx context.Context, hints Hints) (*domain.Tenant, error) {
	type candidate struct {
		key    string
		lookup func(context.Context) (*domain.Tenant, error)
	}

	var candidates []candidate
	if slug := strings.TrimSpace(hints.Slug); slug != "" {
		candidates = append(candidates, candidate{
			key: "slug:" + slug,
			lookup: func(ctx context.Context) (*domain.Tenant, error) {
				return r.repo.FindBySlug(ctx, slug)
			},
		})
	}
	if sub := SubdomainFromHost(hints.Host); sub != "" {
		candidates = append(candidates, candidate{
			key: "subdomain:" + sub,
			lookup: func(ctx context.Context) (*domain.Tenant, error) {
				return r.repo.FindBySubdomain(ctx, sub)
			},
		})
	}
	if raw := strings.TrimSpace(hints.ID); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			candidates = append(candidates, candidate{
				key: "id:" + id.String(),
				lookup: func(ctx context.Context) (*domain.Tenant, error) {
					return r.repo.FindByID(ctx, id)
				},
			})
		}
	}

	for _, cand := range candidates {
		if t, ok := r.cache.get(cand.key); ok {
			return checkActive(t)
		}

		lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
		t, err := cand.lookup(lookupCtx)
		cancel()
		if err != nil {
			if errors.Is(err, domain.ErrTenantNotFound) {
				continue
			}
			// A store failure here cannot fail open: without a tenant
			// there is nothing to admit a request into.
			r.logger.Error("tenant lookup degraded", "hint", cand.key, "error", err)
			return nil, fmt.Errorf("tenant lookup: %w", domain.ErrStoreUnavailable)
		}

		if t.Active {
			r.cache.set(cand.key, t)
		}
		return checkActive(t)
	}

	return nil, domain.ErrTenantNotFound
}

// Invalidate drops cached lookups for the tenant. Wire this to tenant
// deactivation events so stale-active reads cannot outlive the event.
func (r *Resolver) Invalidate(tenantID uuid.UUID) {
	r.cache.invalidate(tenantID)
}

func checkActive(t *domain.Tenant) (*domain.Tenant, error) {
	if !t.Active {
		return nil, domain.ErrTenantInactive
	}
	return t, nil
}

// nonTenantSubdomains are shared entry points, never tenant names.
var nonTenantSubdomains = map[string]struct{}{
	"www": {},
	"api": {},
	"app": {},
}

// SubdomainFromHost extracts the tenant subdomain from a Host header.
// "acme.saas.example.com" yields "acme"; hosts without a subdomain or with
// a shared prefix (www, api, app) yield "".
func SubdomainFromHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	sub := strings.ToLower(parts[0])
	if _, shared := nonTenantSubdomains[sub]; shared {
		return ""
	}
	return sub
}
