package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/geocoder89/rfphub/internal/auth"
	"github.com/geocoder89/rfphub/internal/domain/user"
	"github.com/geocoder89/rfphub/internal/events"
	"github.com/geocoder89/rfphub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

// roleTokens accepts tokens of the form "<role>:<user id>".
type roleTokens struct{}

func (roleTokens) VerifyAccessToken(token string) (*auth.Claims, error) {
	role, id, ok := strings.Cut(token, ":")
	if !ok || id == "" {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{UserID: id, Email: id + "@example.com", Role: role}, nil
}

var authMW = middlewares.NewAuthMiddleware(roleTokens{})

// setupRouter mounts one handler behind RequestID and the given auth step.
func setupRouter(method, path string, authStep gin.HandlerFunc, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	if authStep != nil {
		r.Handle(method, path, authStep, h)
	} else {
		r.Handle(method, path, h)
	}
	return r
}

func doRequest(r http.Handler, method, path, body, token string, headers ...[2]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, h := range headers {
		req.Header.Set(h[0], h[1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type apiErrorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body is not json: %v body=%s", err, w.Body.String())
	}
	return e.Error.Code
}

func mustDecode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
	return out
}

type fakeUsers struct {
	users map[string]user.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

// recordingPublisher captures emitted events.
type recordingPublisher struct {
	mu    sync.Mutex
	types []events.Type
}

func (p *recordingPublisher) Publish(_ context.Context, t events.Type, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, t)
	return nil
}

func (p *recordingPublisher) Types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Type(nil), p.types...)
}
