package admission

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
	"github.com/platformkit/tenantgate/pkg/ratelimit"
	"github.com/platformkit/tenantgate/pkg/rbac"
	"github.com/platformkit/tenantgate/pkg/tenant"
	"github.com/platformkit/tenantgate/pkg/token"
)

// Request is one inbound request as the admission layer sees it: tenant
// hints in priority order, the bearer credential, and the action being
// attempted.
type Request struct {
	TenantSlug  string // X-Tenant-Slug header
	Host        string // Host header, for subdomain resolution
	TenantID    string // X-Tenant-Id header
	BearerToken string
	Action      rbac.Action
	// OwnerID is the owning subject of the target resource, when the
	// action supports self-or-above authorization.
	OwnerID *uuid.UUID
}

// RequestContext is the resolved identity/tenant bundle published to
// downstream handlers on success. Treat it as read-only; handlers must not
// re-derive tenant or identity from the raw request.
type RequestContext struct {
	Tenant   *domain.Tenant
	Identity *domain.Identity
}

// Pipeline composes the four admission stages in fixed order:
// resolve tenant, rate-limit, verify token, authorize. Tenant first because
// nothing else is meaningful without it; rate limit before verification so
// abusive tenants are rejected before any crypto work; verification before
// authorization because the role comes from the verified token.
type Pipeline struct {
	resolver   *tenant.Resolver
	limiter    *ratelimit.Limiter
	codec      *token.Codec
	authorizer *rbac.Authorizer
	logger     *slog.Logger
}

// NewPipeline wires the stages together.
func NewPipeline(
	resolver *tenant.Resolver,
	limiter *ratelimit.Limiter,
	codec *token.Codec,
	authorizer *rbac.Authorizer,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		resolver:   resolver,
		limiter:    limiter,
		codec:      codec,
		authorizer: authorizer,
		logger:     logger,
	}
}

// Admit runs the stages sequentially and short-circuits on the first
// failure, returning one classified error from the domain taxonomy. The
// rate-limit decrement taken in stage two is deliberately not rolled back
// when a later stage rejects: the tenant still caused the load.
func (p *Pipeline) Admit(ctx context.Context, req Request) (*RequestContext, error) {
	t, err := p.resolver.Resolve(ctx, tenant.Hints{
		Slug: req.TenantSlug,
		Host: req.Host,
		ID:   req.TenantID,
	})
	if err != nil {
		return nil, err
	}

	res, err := p.limiter.Admit(ctx, t)
	if err != nil {
		return nil, err
	}
	if res.Degraded {
		p.logger.Warn("admission running degraded", "tenant_id", t.ID, "tenant_slug", t.Slug)
	}

	if req.BearerToken == "" {
		return nil, domain.ErrTokenInvalid
	}
	identity, err := p.codec.Verify(req.BearerToken, t)
	if err != nil {
		return nil, err
	}

	if err := p.authorizer.Authorize(identity, req.Action, req.OwnerID); err != nil {
		return nil, err
	}

	return &RequestContext{Tenant: t, Identity: identity}, nil
}

// Authorizer exposes the RBAC stage for handlers that need follow-up
// checks (the last-admin guard) after admission.
func (p *Pipeline) Authorizer() *rbac.Authorizer {
	return p.authorizer
}
