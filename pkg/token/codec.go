package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// DefaultTTL is the fixed validity window for issued tokens. The codec has
// no revocation: an expired-but-unrevoked token is an accepted residual
// risk, bounded by keeping this window short.
const DefaultTTL = 30 * time.Minute

// Claims is the payload of an access token. TenantID binds the token to
// the tenant it was issued under; a token is never valid outside that
// tenant, even if the subject also exists elsewhere.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
}

// Config holds codec configuration.
type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Codec issues and verifies HS256-signed identity tokens bound to a tenant.
type Codec struct {
	config Config
}

// NewCodec creates a token codec.
func NewCodec(config Config) *Codec {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &Codec{config: config}
}

// TTL returns the validity window for issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.config.TTL
}

// Issue creates a signed token for the identity within its tenant.
func (c *Codec) Issue(identity *domain.Identity, tenant *domain.Tenant) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TTL)),
			Issuer:    c.config.Issuer,
			ID:        uuid.New().String(),
		},
		TenantID: tenant.ID.String(),
		Role:     identity.Role.String(),
		Email:    identity.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks the raw token and returns the identity it carries.
// Checks run in order: signature/integrity, expiry, tenant binding. Each
// failure yields a distinct error: domain.ErrTokenInvalid,
// domain.ErrTokenExpired, domain.ErrTenantMismatch. The tenant-binding
// check is the defense against token replay across tenants.
func (c *Codec) Verify(raw string, tenant *domain.Tenant) (*domain.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.config.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	tokenTenant, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if tokenTenant != tenant.ID {
		return nil, domain.ErrTenantMismatch
	}

	return &domain.Identity{
		ID:       subject,
		TenantID: tokenTenant,
		Email:    claims.Email,
		Role:     role,
		Active:   true,
	}, nil
}
