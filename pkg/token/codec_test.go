package token

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/pkg/domain"
)

var testSecret = []byte("test-secret-key-not-for-production")

func testTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:     uuid.New(),
		Slug:   "acme",
		Active: true,
		Tier:   domain.TierFree,
	}
}

func testIdentity(tenantID uuid.UUID, role domain.Role) *domain.Identity {
	return &domain.Identity{
		ID:       uuid.New(),
		TenantID: tenantID,
		Email:    "user@example.com",
		Role:     role,
		Active:   true,
	}
}

func TestIssueAndVerify(t *testing.T) {
	codec := NewCodec(Config{Secret: testSecret, Issuer: "tenantgate"})
	tenant := testTenant()
	identity := testIdentity(tenant.ID, domain.RoleMember)

	raw, claims, err := codec.Issue(identity, tenant)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if claims.TenantID != tenant.ID.String() {
		t.Errorf("claims tenant = %s, want %s", claims.TenantID, tenant.ID)
	}

	got, err := codec.Verify(raw, tenant)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.ID != identity.ID {
		t.Errorf("subject = %s, want %s", got.ID, identity.ID)
	}
	if got.Role != domain.RoleMember {
		t.Errorf("role = %s, want member", got.Role)
	}
	if got.TenantID != tenant.ID {
		t.Errorf("tenant = %s, want %s", got.TenantID, tenant.ID)
	}
}

func TestVerifyTenantMismatch(t *testing.T) {
	codec := NewCodec(Config{Secret: testSecret})
	beta := testTenant()
	beta.Slug = "beta"
	acme := testTenant()

	// Token issued for beta, presented against acme.
	raw, _, err := codec.Issue(testIdentity(beta.ID, domain.RoleMember), beta)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = codec.Verify(raw, acme)
	if !errors.Is(err, domain.ErrTenantMismatch) {
		t.Errorf("got %v, want ErrTenantMismatch", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	codec := NewCodec(Config{Secret: testSecret, TTL: -time.Minute})
	tenant := testTenant()

	raw, _, err := codec.Issue(testIdentity(tenant.ID, domain.RoleViewer), tenant)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = codec.Verify(raw, tenant)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyBadSignature(t *testing.T) {
	codec := NewCodec(Config{Secret: testSecret})
	other := NewCodec(Config{Secret: []byte("some-other-secret-entirely")})
	tenant := testTenant()

	raw, _, err := other.Issue(testIdentity(tenant.ID, domain.RoleAdmin), tenant)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = codec.Verify(raw, tenant)
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	codec := NewCodec(Config{Secret: testSecret})

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := codec.Verify(raw, testTenant()); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("Verify(%q) = %v, want ErrTokenInvalid", raw, err)
		}
	}
}

func TestExpiredWins_OverTenantMismatch(t *testing.T) {
	// Expiry is checked before tenant binding: an expired foreign token
	// reports expiry, not mismatch.
	codec := NewCodec(Config{Secret: testSecret, TTL: -time.Minute})
	beta := testTenant()
	acme := testTenant()

	raw, _, err := codec.Issue(testIdentity(beta.ID, domain.RoleMember), beta)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = codec.Verify(raw, acme)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}
