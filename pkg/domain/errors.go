package domain

import "errors"

// Tenant resolution errors
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantInactive = errors.New("tenant account is inactive")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTenantMismatch = errors.New("token tenant mismatch")
)

// Authorization errors
var (
	ErrForbidden = errors.New("permission denied")
	ErrLastAdmin = errors.New("cannot remove the last admin of a tenant")
)

// Admission errors
var (
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrStoreUnavailable = errors.New("shared store unavailable")
)

// Repository errors
var (
	ErrIdentityNotFound = errors.New("identity not found")
)
