package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/platformkit/tenantgate/internal/http/features/projects"
	"github.com/platformkit/tenantgate/internal/http/features/users"
	"github.com/platformkit/tenantgate/internal/http/middleware"
	"github.com/platformkit/tenantgate/internal/httputil"
	"github.com/platformkit/tenantgate/pkg/admission"
	"github.com/platformkit/tenantgate/pkg/rbac"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger        *slog.Logger
	Pipeline      *admission.Pipeline
	ProjectStore  projects.Store
	IdentityStore users.IdentityStore
	IPGuard       middleware.IPGuardConfig
}

// NewRouter creates the HTTP router. Every business route sits behind the
// admission pipeline with its declared action; only /health is open.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.IPGuard(cfg.IPGuard))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	projectsHandler := projects.NewHandler(cfg.Logger, cfg.ProjectStore)
	usersHandler := users.NewHandler(cfg.Logger, cfg.IdentityStore, cfg.Pipeline.Authorizer())

	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.Admit(cfg.Pipeline, rbac.ActionProjectList)).
			Get("/projects", projectsHandler.List)
		r.With(middleware.Admit(cfg.Pipeline, rbac.ActionProjectCreate)).
			Post("/projects", projectsHandler.Create)

		r.With(middleware.Admit(cfg.Pipeline, rbac.ActionUserList)).
			Get("/users", usersHandler.List)
		r.With(middleware.AdmitOwned(cfg.Pipeline, rbac.ActionUserDelete, "userID")).
			Delete("/users/{userID}", usersHandler.Delete)
	})

	return r
}
