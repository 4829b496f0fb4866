package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// IdentitiesRepository handles identity persistence. Every query is
// scoped by tenant id; cross-tenant reads are not expressible through
// this interface.
type IdentitiesRepository struct {
	db *sql.DB
}

// NewIdentitiesRepository creates a new identities repository.
func NewIdentitiesRepository(db *sql.DB) *IdentitiesRepository {
	return &IdentitiesRepository{db: db}
}

const identityColumns = `id, tenant_id, email, role, active, created_at, updated_at`

func scanIdentity(row *sql.Row) (*domain.Identity, error) {
	var id domain.Identity
	var role string
	err := row.Scan(
		&id.ID,
		&id.TenantID,
		&id.Email,
		&role,
		&id.Active,
		&id.CreatedAt,
		&id.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	id.Role = parsed
	return &id, nil
}

// GetByID retrieves an identity within a tenant.
func (r *IdentitiesRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE tenant_id = $1 AND id = $2`
	return scanIdentity(r.db.QueryRowContext(ctx, query, tenantID, id))
}

// GetByEmail retrieves an identity by email within a tenant. Emails are
// unique per tenant, not globally.
func (r *IdentitiesRepository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE tenant_id = $1 AND email = $2`
	return scanIdentity(r.db.QueryRowContext(ctx, query, tenantID, email))
}

// ListByTenant retrieves all identities in a tenant.
func (r *IdentitiesRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE tenant_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []*domain.Identity
	for rows.Next() {
		var id domain.Identity
		var role string
		if err := rows.Scan(&id.ID, &id.TenantID, &id.Email, &role, &id.Active, &id.CreatedAt, &id.UpdatedAt); err != nil {
			return nil, err
		}
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		id.Role = parsed
		identities = append(identities, &id)
	}
	return identities, rows.Err()
}

// CountAdminsInTenant reports how many active admins a tenant has. Backs
// the last-admin guard.
func (r *IdentitiesRepository) CountAdminsInTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM identities WHERE tenant_id = $1 AND role = 'admin' AND active`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes an identity within a tenant.
func (r *IdentitiesRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM identities WHERE tenant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}
