package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/platformkit/tenantgate/internal/config"
	httpserver "github.com/platformkit/tenantgate/internal/http"
	"github.com/platformkit/tenantgate/internal/http/middleware"
	"github.com/platformkit/tenantgate/pkg/admission"
	"github.com/platformkit/tenantgate/pkg/ratelimit"
	"github.com/platformkit/tenantgate/pkg/rbac"
	"github.com/platformkit/tenantgate/pkg/repository"
	"github.com/platformkit/tenantgate/pkg/tenant"
	"github.com/platformkit/tenantgate/pkg/token"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories
	tenantsRepo := repository.NewTenantsRepository(db)
	identitiesRepo := repository.NewIdentitiesRepository(db)
	projectsRepo := repository.NewProjectsRepository(db)

	// Rate-limit store: shared Redis when reachable, otherwise a local
	// in-memory bucket. The in-memory store keeps limits correct per
	// process but not across replicas.
	store := newRateLimitStore(cfg, logger)

	// Initialize admission stages
	resolver := tenant.NewResolver(tenantsRepo, tenant.Config{
		CacheTTL:        cfg.TenantCacheTTL,
		CacheMaxEntries: cfg.TenantCacheEntries,
		LookupTimeout:   cfg.TenantLookupTime,
		Logger:          logger,
	})
	limiter := ratelimit.NewLimiter(store, ratelimit.Config{
		Policy:       cfg.RateLimitPolicy,
		StoreTimeout: cfg.RateLimitStoreTimeout,
		Logger:       logger,
	})
	codec := token.NewCodec(token.Config{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})
	authorizer := rbac.NewAuthorizer(identitiesRepo)

	pipeline := admission.NewPipeline(resolver, limiter, codec, authorizer, logger)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:        logger,
		Pipeline:      pipeline,
		ProjectStore:  projectsRepo,
		IdentityStore: identitiesRepo,
		IPGuard: middleware.IPGuardConfig{
			Enabled:  cfg.IPGuardEnabled,
			Requests: cfg.IPGuardRequests,
			Window:   cfg.IPGuardWindow,
			Logger:   logger,
		},
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr, "rate_limit_policy", string(cfg.RateLimitPolicy))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// newRateLimitStore connects to Redis, falling back to the in-memory
// store when the initial ping fails. Runtime Redis failures are handled
// by the limiter's degradation policy, not here.
func newRateLimitStore(cfg *config.Config, logger *slog.Logger) ratelimit.Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-memory rate-limit store",
			"addr", cfg.RedisAddr, "error", err)
		client.Close()
		return ratelimit.NewMemoryStore(cfg.RateLimitStateTTL)
	}

	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return ratelimit.NewRedisStore(client, cfg.RateLimitStateTTL)
}
