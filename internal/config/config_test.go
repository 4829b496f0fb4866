package config

import (
	"os"
	"testing"
	"time"

	"github.com/platformkit/tenantgate/pkg/ratelimit"
)

func TestLoad_Defaults(t *testing.T) {
	// Set required JWT_SECRET
	os.Setenv("JWT_SECRET", "test-secret-key")
	defer os.Unsetenv("JWT_SECRET")

	// Clear any other env vars that might interfere
	envVars := []string{
		"SERVER_ADDR", "SERVER_PORT", "DB_HOST", "DB_PORT", "DB_USER",
		"DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "REDIS_ADDR", "TOKEN_TTL",
		"RATE_LIMIT_POLICY", "TENANT_CACHE_TTL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Check defaults
	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, 30*time.Minute)
	}
	if cfg.RateLimitPolicy != ratelimit.FailOpen {
		t.Errorf("RateLimitPolicy = %q, want fail-open default", cfg.RateLimitPolicy)
	}
	if cfg.TenantCacheTTL != 30*time.Second {
		t.Errorf("TenantCacheTTL = %v, want %v", cfg.TenantCacheTTL, 30*time.Second)
	}
}

func TestLoad_RequiredJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Load should fail when JWT_SECRET is not set")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "custom-secret")
	os.Setenv("RATE_LIMIT_POLICY", "closed")
	os.Setenv("TOKEN_TTL", "15m")
	defer func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("RATE_LIMIT_POLICY")
		os.Unsetenv("TOKEN_TTL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RateLimitPolicy != ratelimit.FailClosed {
		t.Errorf("RateLimitPolicy = %q, want closed", cfg.RateLimitPolicy)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %v, want 15m", cfg.TokenTTL)
	}
}

func TestLoad_InvalidPolicy(t *testing.T) {
	os.Setenv("JWT_SECRET", "custom-secret")
	os.Setenv("RATE_LIMIT_POLICY", "sometimes")
	defer func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("RATE_LIMIT_POLICY")
	}()

	if _, err := Load(); err == nil {
		t.Error("Load should reject an unknown degradation policy")
	}
}
