package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/internal/http/middleware"
	"github.com/platformkit/tenantgate/internal/httputil"
	"github.com/platformkit/tenantgate/pkg/domain"
	"github.com/platformkit/tenantgate/pkg/rbac"
)

// IdentityStore is the external identity collaborator, scoped by tenant.
type IdentityStore interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Identity, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.Identity, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Handler serves user management routes behind the admission pipeline.
type Handler struct {
	logger     *slog.Logger
	store      IdentityStore
	authorizer *rbac.Authorizer
}

// NewHandler creates a users handler.
func NewHandler(logger *slog.Logger, store IdentityStore, authorizer *rbac.Authorizer) *Handler {
	return &Handler{logger: logger, store: store, authorizer: authorizer}
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// List handles GET /v1/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.GetRequestContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "missing admission context")
		return
	}

	identities, err := h.store.ListByTenant(r.Context(), rc.Tenant.ID)
	if err != nil {
		h.logger.Error("list users", "tenant_id", rc.Tenant.ID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	items := make([]userResponse, 0, len(identities))
	for _, id := range identities {
		items = append(items, userResponse{ID: id.ID, Email: id.Email, Role: id.Role.String()})
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// Delete handles DELETE /v1/users/{userID}. Admission already enforced
// self-or-Admin; the remaining check is the last-admin guard, which needs
// the target identity loaded.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	rc, ok := middleware.GetRequestContext(r.Context())
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "missing admission context")
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	target, err := h.store.GetByID(r.Context(), rc.Tenant.ID, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			httputil.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("load user", "tenant_id", rc.Tenant.ID, "user_id", targetID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	if err := h.authorizer.GuardAdminRemoval(r.Context(), target); err != nil {
		if errors.Is(err, domain.ErrLastAdmin) {
			middleware.WriteAdmissionError(w, err)
			return
		}
		h.logger.Error("last-admin guard", "tenant_id", rc.Tenant.ID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to verify admin count")
		return
	}

	if err := h.store.Delete(r.Context(), rc.Tenant.ID, targetID); err != nil {
		h.logger.Error("delete user", "tenant_id", rc.Tenant.ID, "user_id", targetID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
