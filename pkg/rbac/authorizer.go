package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// Action names an operation a caller may attempt. Every action declares a
// minimum role in the rules table below; there are no ad hoc checks.
type Action string

const (
	ActionProjectList   Action = "project.list"
	ActionProjectCreate Action = "project.create"
	ActionProjectUpdate Action = "project.update"
	ActionProjectDelete Action = "project.delete"

	ActionUserList       Action = "user.list"
	ActionUserUpdate     Action = "user.update"
	ActionUserDelete     Action = "user.delete"
	ActionUserChangeRole Action = "user.change_role"
)

type rule struct {
	min domain.Role
	// selfOrAbove: the subject may act on a resource it owns even below
	// the minimum role.
	selfOrAbove bool
}

var rules = map[Action]rule{
	ActionProjectList:   {min: domain.RoleViewer},
	ActionProjectCreate: {min: domain.RoleMember},
	ActionProjectUpdate: {min: domain.RoleMember},
	ActionProjectDelete: {min: domain.RoleAdmin, selfOrAbove: true},

	ActionUserList:       {min: domain.RoleViewer},
	ActionUserUpdate:     {min: domain.RoleAdmin, selfOrAbove: true},
	ActionUserDelete:     {min: domain.RoleAdmin, selfOrAbove: true},
	ActionUserChangeRole: {min: domain.RoleAdmin},
}

// DenyReason classifies a deny for observability.
type DenyReason string

const (
	ReasonInsufficientRole  DenyReason = "insufficient_role"
	ReasonOwnershipMismatch DenyReason = "ownership_mismatch"
	ReasonUnknownAction     DenyReason = "unknown_action"
)

// DeniedError is an authorization deny carrying its reason code.
type DeniedError struct {
	Action   Action
	Reason   DenyReason
	Required domain.Role
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("action %s denied (%s, requires %s or higher)", e.Action, e.Reason, e.Required)
}

func (e *DeniedError) Unwrap() error { return domain.ErrForbidden }

// AdminCounter reports how many admins a tenant currently has. Backed by
// the external identity repository.
type AdminCounter interface {
	CountAdminsInTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// Authorizer decides whether a role may perform an action.
type Authorizer struct {
	admins AdminCounter
}

// NewAuthorizer creates an authorizer. admins may be nil if the last-admin
// guard is never consulted.
func NewAuthorizer(admins AdminCounter) *Authorizer {
	return &Authorizer{admins: admins}
}

// Authorize allows the action when the identity's role meets the action's
// minimum, or when the action is self-or-above and the subject owns the
// resource. A nil return means allow; denies are *DeniedError values
// wrapping domain.ErrForbidden.
func (a *Authorizer) Authorize(identity *domain.Identity, action Action, ownerID *uuid.UUID) error {
	r, ok := rules[action]
	if !ok {
		return &DeniedError{Action: action, Reason: ReasonUnknownAction, Required: domain.RoleAdmin}
	}

	if identity.Role.AtLeast(r.min) {
		return nil
	}

	if r.selfOrAbove && ownerID != nil && identity.ID == *ownerID {
		return nil
	}

	reason := ReasonInsufficientRole
	if r.selfOrAbove && ownerID != nil {
		reason = ReasonOwnershipMismatch
	}
	return &DeniedError{Action: action, Reason: reason, Required: r.min}
}

// GuardAdminRemoval rejects removing or demoting the last remaining Admin
// of a tenant. Call it before user deletion or role changes that would
// strip admin rights; a tenant must never be left with zero admins.
func (a *Authorizer) GuardAdminRemoval(ctx context.Context, target *domain.Identity) error {
	if target.Role != domain.RoleAdmin {
		return nil
	}
	if a.admins == nil {
		return fmt.Errorf("last-admin guard: no admin counter configured")
	}
	count, err := a.admins.CountAdminsInTenant(ctx, target.TenantID)
	if err != nil {
		return fmt.Errorf("last-admin guard: %w", err)
	}
	if count <= 1 {
		return domain.ErrLastAdmin
	}
	return nil
}

// MinimumRole returns the declared minimum for the action, for surfaces
// that want to report requirements without attempting the action.
func MinimumRole(action Action) (domain.Role, bool) {
	r, ok := rules[action]
	return r.min, ok
}
