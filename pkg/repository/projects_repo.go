package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// ProjectsRepository handles project persistence, scoped by tenant id.
type ProjectsRepository struct {
	db *sql.DB
}

// NewProjectsRepository creates a new projects repository.
func NewProjectsRepository(db *sql.DB) *ProjectsRepository {
	return &ProjectsRepository{db: db}
}

// Create inserts a project owned by the given identity.
func (r *ProjectsRepository) Create(ctx context.Context, tenantID, ownerID uuid.UUID, name string) (*domain.Project, error) {
	query := `
		INSERT INTO projects (id, tenant_id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, tenant_id, owner_id, name, created_at`
	var p domain.Project
	err := r.db.QueryRowContext(ctx, query, uuid.New(), tenantID, ownerID, name).Scan(
		&p.ID,
		&p.TenantID,
		&p.OwnerID,
		&p.Name,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the tenant's projects, newest first.
func (r *ProjectsRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Project, error) {
	query := `
		SELECT id, tenant_id, owner_id, name, created_at
		FROM projects
		WHERE tenant_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.OwnerID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}
