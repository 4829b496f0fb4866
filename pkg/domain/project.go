package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is a tenant-owned resource. It exists to give the admission
// layer something concrete to protect; richer project semantics live in
// downstream services.
type Project struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
