package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oneinstack/mirror/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireTokenDisabledWithoutToken(t *testing.T) {
	h := RequireToken("", logger.New("error", false))(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 when no token configured", rec.Code)
	}
}

func TestRequireTokenRejectsBadToken(t *testing.T) {
	h := RequireToken("s3cret", logger.New("error", false))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header status = %d, want 401", rec.Code)
	}
}

func TestRequireTokenAcceptsAllCredentialForms(t *testing.T) {
	h := RequireToken("s3cret", logger.New("error", false))(okHandler())

	cases := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"authorization header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer s3cret") }},
		{"x-admin-token header", func(r *http.Request) { r.Header.Set("X-Admin-Token", "s3cret") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/scraper/logs/stream?token=s3cret", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("query token status = %d, want 200", rec.Code)
	}
}
