package domain

import "fmt"

// Role is the position of an identity in the tenant's access hierarchy.
// Roles are totally ordered: Viewer < Member < Admin.
type Role int

const (
	RoleViewer Role = iota + 1
	RoleMember
	RoleAdmin
)

// AtLeast reports whether the role meets the given minimum.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// String returns the wire form of the role.
func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole converts a wire-form role name into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "viewer":
		return RoleViewer, nil
	case "member":
		return RoleMember, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}
