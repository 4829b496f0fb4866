package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/platformkit/tenantgate/internal/httputil"
)

// IPGuardConfig holds per-IP rate limiting configuration.
type IPGuardConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// IPGuard creates an IP-based rate limiter for the whole HTTP surface. It
// sits in front of the per-tenant budget and only protects against single
// sources flooding the resolver before a tenant is even known; the tenant
// token bucket remains the authoritative budget.
func IPGuard(cfg IPGuardConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("ip guard tripped",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}
