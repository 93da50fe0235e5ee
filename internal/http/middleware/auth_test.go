// README: Tests for Firebase auth, logging and recovery middleware.
package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"galley/internal/http/middleware"
	"galley/internal/infra"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	token *infra.StaffToken
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.StaffToken, error) {
	return s.token, s.err
}

func newTestRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(verifier))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c), "tenant": middleware.CallerTenant(c)})
	})
	return r
}

func TestAuth_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		verifier *stubVerifier
		header   string
	}{
		{"missing header", &stubVerifier{token: &infra.StaffToken{UID: "u1"}}, ""},
		{"wrong prefix", &stubVerifier{token: &infra.StaffToken{UID: "u1"}}, "Token abc"},
		{"empty token", &stubVerifier{token: &infra.StaffToken{UID: "u1"}}, "Bearer   "},
		{"verifier error", &stubVerifier{err: errors.New("bad token")}, "Bearer abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newTestRouter(tt.verifier).ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestAuth_ValidToken_PopulatesCaller(t *testing.T) {
	token := &infra.StaffToken{
		UID:    "staff42",
		Claims: map[string]interface{}{"tenant_id": "cafe-7"},
	}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer validtoken")
	w := httptest.NewRecorder()
	newTestRouter(&stubVerifier{token: token}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["uid"] != "staff42" || body["tenant"] != "cafe-7" {
		t.Errorf("unexpected caller %v", body)
	}
}

func TestAuth_ValidToken_NoTenantClaim(t *testing.T) {
	token := &infra.StaffToken{UID: "guest", Claims: map[string]interface{}{}}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer validtoken")
	w := httptest.NewRecorder()
	newTestRouter(&stubVerifier{token: token}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"tenant":""`) {
		t.Errorf("expected empty tenant, got %s", w.Body.String())
	}
}

func TestLogging_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	r := gin.New()
	r.Use(middleware.Logging(log))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, middleware.RequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(middleware.RequestIDHeader)
	if id == "" || w.Body.String() != id {
		t.Fatalf("request id header %q, body %q", id, w.Body.String())
	}
	if !strings.Contains(buf.String(), `"request_id":"`+id+`"`) || !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("unexpected access log %s", buf.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(middleware.RequestIDHeader); got != "given-id" {
		t.Errorf("expected caller request id to be kept, got %q", got)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(middleware.Recovery(slog.New(slog.NewJSONHandler(&buf, nil))))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}
