package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/auth"
	"github.com/geocoder89/rfphub/internal/http/handlers"
	"github.com/geocoder89/rfphub/internal/http/middlewares"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// testRouter mounts the real route table with store-less handlers. Only
// paths that stop before touching a store are exercised.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()

	reg := prometheus.NewRegistry()
	jwtManager := auth.NewManager("router-test-secret", 15*time.Minute, 24*time.Hour)

	return NewRouter(Deps{
		Env:         "test",
		Prom:        observability.NewProm(reg),
		Gatherer:    reg,
		Auth:        middlewares.NewAuthMiddleware(jwtManager),
		AuthLimiter: middlewares.NewRateLimiter(2, time.Minute),

		Health:        handlers.NewHealthHandler(nil),
		AuthH:         handlers.NewAuthHandler(nil, jwtManager, nil, false),
		Users:         handlers.NewUsersHandler(nil, nil),
		Organizations: handlers.NewOrganizationsHandler(nil),
		RFPs:          handlers.NewRFPsHandler(nil, nil, nil, nil),
		Offers:        handlers.NewOffersHandler(nil, nil, nil, nil, nil),
		Products:      handlers.NewProductsHandler(nil, nil),
		Orders:        handlers.NewOrdersHandler(nil),
		Pools:         handlers.NewPoolsHandler(nil, nil),
		Concierge:     handlers.NewConciergeHandler(nil),
		AdminJobs:     handlers.NewAdminJobsHandler(nil),
	})
}

func serve(r http.Handler, method, path, body, contentType, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := testRouter(t)

	if w := serve(r, http.MethodGet, "/healthz", "", "", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/readyz", "", "", ""); w.Code != http.StatusOK {
		t.Fatalf("readyz without db got %d", w.Code)
	}

	w := serve(r, http.MethodGet, "/metrics", "", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "rfphub_http_requests_total") {
		t.Fatalf("metrics got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_SecurityHeadersAndRequestID(t *testing.T) {
	r := testRouter(t)

	w := serve(r, http.MethodGet, "/healthz", "", "", "")
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a generated request id")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers, got %v", w.Header())
	}
}

func TestRouter_AuthRequired(t *testing.T) {
	r := testRouter(t)

	protected := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/rfps"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/graphql"},
		{http.MethodGet, "/api/v1/admin/jobs"},
		{http.MethodGet, "/api/v1/ai-concierge/history"},
	}

	for _, p := range protected {
		if w := serve(r, p.method, p.path, "", "", ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s got %d, want 401", p.method, p.path, w.Code)
		}
	}

	if w := serve(r, http.MethodGet, "/api/v1/rfps", "", "", "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token on optional route got %d, want 401", w.Code)
	}
}

func TestRouter_RoleChecks(t *testing.T) {
	r := testRouter(t)

	jwtManager := auth.NewManager("router-test-secret", 15*time.Minute, 24*time.Hour)
	sellerToken, err := jwtManager.GenerateAccessToken("11111111-1111-1111-1111-111111111111", "s@example.com", "seller")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if w := serve(r, http.MethodPost, "/api/v1/rfps", `{"title":"x"}`, "application/json", sellerToken); w.Code != http.StatusForbidden {
		t.Fatalf("seller creating rfp got %d, want 403", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/admin/jobs", "", "", sellerToken); w.Code != http.StatusForbidden {
		t.Fatalf("seller on admin got %d, want 403", w.Code)
	}
}

func TestRouter_RequireJSONAndNotFound(t *testing.T) {
	r := testRouter(t)

	w := serve(r, http.MethodPost, "/api/v1/auth/login", "email=a", "application/x-www-form-urlencoded", "")
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("form body got %d, want 415", w.Code)
	}

	if w := serve(r, http.MethodGet, "/api/v1/nope", "", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown route got %d, want 404", w.Code)
	}
}

func TestRouter_AuthRateLimit(t *testing.T) {
	r := testRouter(t)

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodPost, "/api/v1/auth/login", `{}`, "application/json", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("call %d got %d, want 400", i, w.Code)
		}
	}

	w := serve(r, http.MethodPost, "/api/v1/auth/login", `{}`, "application/json", "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("third call got %d, want 429 with Retry-After", w.Code)
	}
}
