package projects

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/internal/http/middleware"
	"github.com/platformkit/tenantgate/internal/httputil"
	"github.com/platformkit/tenantgate/pkg/domain"
)

// Store is the external project collaborator. Every call is scoped by the
// admitted tenant id.
type Store interface {
	Create(ctx context.Context, tenantID, ownerID uuid.UUID, name string) (*domain.Project, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Project, error)
}

// Handler serves project routes behind the admission pipeline.
type Handler struct {
	logger *slog.Logger
	store  Store
}

// NewHandler creates a projects handler.
func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

type createRequest struct {
	Name string `json:"name"`
}

// Create handles POST /v1/projects. Admission (Member minimum) has
// already run; the handler only consumes the published context.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.GetRequestContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "missing admission context")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := h.store.Create(r.Context(), rc.Tenant.ID, rc.Identity.ID, req.Name)
	if err != nil {
		h.logger.Error("create project", "tenant_id", rc.Tenant.ID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	httputil.JSON(w, http.StatusCreated, project)
}

// List handles GET /v1/projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.GetRequestContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "missing admission context")
		return
	}

	items, err := h.store.List(r.Context(), rc.Tenant.ID)
	if err != nil {
		h.logger.Error("list projects", "tenant_id", rc.Tenant.ID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if items == nil {
		items = []*domain.Project{}
	}

	httputil.JSON(w, http.StatusOK, map[string]any{"items": items})
}
