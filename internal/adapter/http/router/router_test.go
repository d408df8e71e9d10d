package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/middleware"
	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// stubListings answers every query with an empty result.
type stubListings struct {
	handler.ListingService
}

func (stubListings) Approved(context.Context) ([]*domain.Listing, error) { return nil, nil }

func (stubListings) Pending(context.Context, domain.Actor) ([]*domain.Listing, error) {
	return []*domain.Listing{}, nil
}

func (stubListings) BySeller(context.Context, string) ([]*domain.Listing, error) { return nil, nil }

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

func newTestRouter(auth middleware.Authenticator, metrics middleware.HTTPMetrics) http.Handler {
	log := logger.NewNop()
	return New(Deps{
		Auth:          handler.NewAuthHandler(nil, nil, log),
		Listings:      handler.NewListingHandler(stubListings{}, domain.DefaultLimits(), nil, log),
		Authenticator: auth,
		Metrics:       metrics,
		RateLimiter:   middleware.NewRateLimiter(100, 100),
		UploadTimeout: time.Minute,
		Logger:        log,
	})
}

func TestRouter_Access(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Authenticate", mock.Anything, "user-token").Return(&identity.Identity{ID: "u1"}, nil)
	auth.On("Authenticate", mock.Anything, "admin-token").Return(&identity.Identity{ID: "a1", IsAdmin: true}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", status: http.StatusOK},
		{name: "public feed", method: http.MethodGet, path: "/api/v1/listings", status: http.StatusOK},
		{name: "meta", method: http.MethodGet, path: "/api/v1/meta", status: http.StatusOK},
		{name: "mine needs auth", method: http.MethodGet, path: "/api/v1/me/listings", status: http.StatusUnauthorized},
		{name: "mine with token", method: http.MethodGet, path: "/api/v1/me/listings", token: "user-token", status: http.StatusOK},
		{name: "create needs auth", method: http.MethodPost, path: "/api/v1/listings", status: http.StatusUnauthorized},
		{name: "pending needs auth", method: http.MethodGet, path: "/api/v1/admin/listings/pending", status: http.StatusUnauthorized},
		{name: "pending forbidden for users", method: http.MethodGet, path: "/api/v1/admin/listings/pending", token: "user-token", status: http.StatusForbidden},
		{name: "pending for admins", method: http.MethodGet, path: "/api/v1/admin/listings/pending", token: "admin-token", status: http.StatusOK},
		{name: "approve forbidden for users", method: http.MethodPost, path: "/api/v1/admin/listings/l1/approve", token: "user-token", status: http.StatusForbidden},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/nope", status: http.StatusNotFound},
	}

	r := newTestRouter(auth, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRouter_RecordsMetrics(t *testing.T) {
	metrics := new(MockHTTPMetrics)
	metrics.On("ObserveHTTP", "/api/v1/listings", http.MethodGet, http.StatusOK, mock.AnythingOfType("time.Duration")).Once()

	r := newTestRouter(new(MockAuthenticator), metrics)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))
	metrics.AssertExpectations(t)
}
