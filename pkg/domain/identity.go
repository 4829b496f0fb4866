package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a user as seen by the admission layer: a subject bound to
// exactly one tenant with a role. Provisioning is external; the core only
// reads identities via verified token claims or the repository.
type Identity struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Email    string
	Role     Role
	Active   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
