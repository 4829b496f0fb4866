package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/platformkit/tenantgate/pkg/ratelimit"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (shared rate-limit store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	// Tenant resolution
	TenantCacheTTL     time.Duration
	TenantCacheEntries int
	TenantLookupTime   time.Duration

	// Rate limiting
	RateLimitPolicy       ratelimit.Policy
	RateLimitStoreTimeout time.Duration
	RateLimitStateTTL     time.Duration

	// Per-IP guard on the HTTP surface, in front of the tenant budget
	IPGuardEnabled  bool
	IPGuardRequests int
	IPGuardWindow   time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	policy, err := ratelimit.ParsePolicy(getEnv("RATE_LIMIT_POLICY", string(ratelimit.FailOpen)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "tenantgate"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis defaults
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// JWT defaults
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "tenantgate"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 30*time.Minute),

		// Tenant resolution defaults
		TenantCacheTTL:     getEnvDuration("TENANT_CACHE_TTL", 30*time.Second),
		TenantCacheEntries: getEnvInt("TENANT_CACHE_ENTRIES", 10_000),
		TenantLookupTime:   getEnvDuration("TENANT_LOOKUP_TIMEOUT", 2*time.Second),

		// Rate limiting defaults
		RateLimitPolicy:       policy,
		RateLimitStoreTimeout: getEnvDuration("RATE_LIMIT_STORE_TIMEOUT", 2*time.Second),
		RateLimitStateTTL:     getEnvDuration("RATE_LIMIT_STATE_TTL", 10*time.Minute),

		// IP guard defaults
		IPGuardEnabled:  getEnvBool("IP_GUARD_ENABLED", true),
		IPGuardRequests: getEnvInt("IP_GUARD_REQUESTS", 600),
		IPGuardWindow:   getEnvDuration("IP_GUARD_WINDOW", time.Minute),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
