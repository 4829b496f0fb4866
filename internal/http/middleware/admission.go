package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/platformkit/tenantgate/internal/httputil"
	"github.com/platformkit/tenantgate/pkg/admission"
	"github.com/platformkit/tenantgate/pkg/domain"
	"github.com/platformkit/tenantgate/pkg/ratelimit"
	"github.com/platformkit/tenantgate/pkg/rbac"
)

type contextKey string

// RequestContextKey is the context key for the admitted request context.
const RequestContextKey contextKey = "admission_request_context"

// Tenant hint and credential headers.
const (
	HeaderTenantSlug = "X-Tenant-Slug"
	HeaderTenantID   = "X-Tenant-Id"
)

// Admit creates middleware that runs the full admission pipeline for the
// given action before the handler executes. On success the resolved
// {tenant, identity} bundle is stored in the request context; handlers
// read it via GetRequestContext instead of re-deriving it.
func Admit(pipeline *admission.Pipeline, action rbac.Action) func(http.Handler) http.Handler {
	return admit(pipeline, action, "")
}

// AdmitOwned is Admit for self-or-above actions whose resource owner id is
// a URL parameter (e.g. the target user of a delete).
func AdmitOwned(pipeline *admission.Pipeline, action rbac.Action, ownerParam string) func(http.Handler) http.Handler {
	return admit(pipeline, action, ownerParam)
}

func admit(pipeline *admission.Pipeline, action rbac.Action, ownerParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := admission.Request{
				TenantSlug:  r.Header.Get(HeaderTenantSlug),
				Host:        r.Host,
				TenantID:    r.Header.Get(HeaderTenantID),
				BearerToken: bearerToken(r),
				Action:      action,
			}

			if ownerParam != "" {
				ownerID, err := uuid.Parse(chi.URLParam(r, ownerParam))
				if err != nil {
					httputil.Error(w, http.StatusBadRequest, "invalid resource id")
					return
				}
				req.OwnerID = &ownerID
			}

			rc, err := pipeline.Admit(r.Context(), req)
			if err != nil {
				WriteAdmissionError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), RequestContextKey, rc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestContext extracts the admitted request context.
func GetRequestContext(ctx context.Context) (*admission.RequestContext, bool) {
	rc, ok := ctx.Value(RequestContextKey).(*admission.RequestContext)
	return rc, ok
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// WriteAdmissionError maps the admission error taxonomy onto HTTP status
// codes. Rate-limit denials carry a Retry-After header from the hint.
func WriteAdmissionError(w http.ResponseWriter, err error) {
	var limited *ratelimit.LimitedError
	if errors.As(err, &limited) {
		w.Header().Set("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())))
		httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		return
	}

	switch {
	case errors.Is(err, domain.ErrTenantNotFound):
		httputil.Error(w, http.StatusNotFound, "tenant not found")
	case errors.Is(err, domain.ErrTenantInactive):
		httputil.Error(w, http.StatusForbidden, "tenant account is inactive")
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenExpired):
		httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, domain.ErrTenantMismatch):
		httputil.Error(w, http.StatusForbidden, "token not valid for this tenant")
	case errors.Is(err, domain.ErrLastAdmin):
		httputil.Error(w, http.StatusConflict, "cannot remove the last admin of a tenant")
	case errors.Is(err, domain.ErrForbidden):
		httputil.Error(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, domain.ErrRateLimited):
		httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
	case errors.Is(err, domain.ErrStoreUnavailable):
		httputil.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}
