package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*identity.Identity, error) {
	args := m.Called(ctx, token)
	if id, ok := args.Get(0).(*identity.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockHTTPMetrics struct {
	mock.Mock
}

func (m *MockHTTPMetrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	m.Called(route, method, code, elapsed)
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(id.ID + ":" + TokenFromContext(r.Context())))
}

func TestJWTAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		setup  func(a *MockAuthenticator)
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", status: http.StatusUnauthorized,
			setup: func(a *MockAuthenticator) {
				a.On("Authenticate", mock.Anything, "bad").Return(nil, identity.ErrInvalidToken).Once()
			}},
		{name: "revoked token", header: "Bearer old", status: http.StatusUnauthorized,
			setup: func(a *MockAuthenticator) {
				a.On("Authenticate", mock.Anything, "old").Return(nil, identity.ErrTokenRevoked).Once()
			}},
		{name: "backend down", header: "Bearer tok", status: http.StatusInternalServerError,
			setup: func(a *MockAuthenticator) {
				a.On("Authenticate", mock.Anything, "tok").Return(nil, errors.New("redis down")).Once()
			}},
		{name: "ok", header: "bearer tok", status: http.StatusOK, body: "u1:tok",
			setup: func(a *MockAuthenticator) {
				a.On("Authenticate", mock.Anything, "tok").Return(&identity.Identity{ID: "u1"}, nil).Once()
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockAuthenticator)
			if tt.setup != nil {
				tt.setup(auth)
			}
			h := JWTAuth(auth, logger.NewNop())(http.HandlerFunc(echoIdentity))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			auth.AssertExpectations(t)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(echoIdentity))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), &identity.Identity{ID: "u1"}, "t")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), &identity.Identity{ID: "a1", IsAdmin: true}, "t")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActorFromContext(t *testing.T) {
	ctx := WithIdentity(context.Background(), &identity.Identity{ID: "a1", Email: "a@example.com", DisplayName: "Ann", IsAdmin: true}, "t")
	actor := ActorFromContext(ctx)
	assert.Equal(t, "a1", actor.ID)
	assert.True(t, actor.IsAdmin)
	assert.Equal(t, "Ann", actor.DisplayName)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000"))
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	m := new(MockHTTPMetrics)
	m.On("ObserveHTTP", "/listings/{id}", http.MethodGet, http.StatusAccepted, mock.AnythingOfType("time.Duration")).Once()

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/listings/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/listings/abc", nil))
	m.AssertExpectations(t)
}

func TestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(Logger(logger.FromZap(zap.New(core))))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {})
	r.Get("/bad", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) })
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	for _, p := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
		assert.Equal(t, int64(http.StatusBadGateway), entries[2].ContextMap()["status"])
	}
}
