package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platformkit/tenantgate/pkg/domain"
	"github.com/platformkit/tenantgate/pkg/ratelimit"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer lowercase-scheme", "lowercase-scheme"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(r); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestWriteAdmissionErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{domain.ErrTenantNotFound, http.StatusNotFound},
		{domain.ErrTenantInactive, http.StatusForbidden},
		{domain.ErrTokenInvalid, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrTenantMismatch, http.StatusForbidden},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrLastAdmin, http.StatusConflict},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("unexpected failure"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		WriteAdmissionError(w, tt.err)
		if w.Code != tt.wantStatus {
			t.Errorf("WriteAdmissionError(%v) status = %d, want %d", tt.err, w.Code, tt.wantStatus)
		}
	}
}

func TestWriteAdmissionErrorRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAdmissionError(w, &ratelimit.LimitedError{RetryAfter: 7 * time.Second})

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "7" {
		t.Errorf("Retry-After = %q, want %q", got, "7")
	}
}

func TestGetRequestContextMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := GetRequestContext(r.Context()); ok {
		t.Error("GetRequestContext reported a context on a bare request")
	}
}
