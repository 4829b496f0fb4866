package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// TenantsRepository handles tenant persistence. Tenants are provisioned
// externally; the admission layer only reads them, plus the deactivation
// flip that feeds resolver cache invalidation.
type TenantsRepository struct {
	db *sql.DB
}

// NewTenantsRepository creates a new tenants repository.
func NewTenantsRepository(db *sql.DB) *TenantsRepository {
	return &TenantsRepository{db: db}
}

const tenantColumns = `
	id, name, slug, subdomain, active, tier,
	rate_limit_per_minute, rate_limit_burst, created_at, updated_at
`

func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var tier string
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Slug,
		&t.Subdomain,
		&t.Active,
		&tier,
		&t.RateLimitPerMinute,
		&t.RateLimitBurst,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	t.Tier = domain.Tier(tier)
	return &t, nil
}

// FindBySlug retrieves a tenant by its URL-safe slug.
func (r *TenantsRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
	return scanTenant(r.db.QueryRowContext(ctx, query, slug))
}

// FindBySubdomain retrieves a tenant by its routing subdomain.
func (r *TenantsRepository) FindBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`
	return scanTenant(r.db.QueryRowContext(ctx, query, subdomain))
}

// FindByID retrieves a tenant by ID.
func (r *TenantsRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(r.db.QueryRowContext(ctx, query, id))
}

// Deactivate flips a tenant inactive. Callers must invalidate the
// resolver cache for the tenant afterwards.
func (r *TenantsRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tenants SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}
