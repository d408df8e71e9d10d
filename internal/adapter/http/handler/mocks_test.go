package handler

import (
	"context"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) listing(args mock.Arguments) (*domain.Listing, error) {
	if l, ok := args.Get(0).(*domain.Listing); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingService) listings(args mock.Arguments) ([]*domain.Listing, error) {
	if ls, ok := args.Get(0).([]*domain.Listing); ok {
		return ls, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, draft domain.Draft, actor domain.Actor) (*domain.Listing, error) {
	return m.listing(m.Called(ctx, draft, actor))
}

func (m *MockListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return m.listing(m.Called(ctx, id))
}

func (m *MockListingService) Approved(ctx context.Context) ([]*domain.Listing, error) {
	return m.listings(m.Called(ctx))
}

func (m *MockListingService) BySeller(ctx context.Context, sellerID string) ([]*domain.Listing, error) {
	return m.listings(m.Called(ctx, sellerID))
}

func (m *MockListingService) Pending(ctx context.Context, actor domain.Actor) ([]*domain.Listing, error) {
	return m.listings(m.Called(ctx, actor))
}

func (m *MockListingService) Moderate(ctx context.Context, id string, target domain.ListingStatus, actor domain.Actor) (*domain.Listing, error) {
	return m.listing(m.Called(ctx, id, target, actor))
}

func (m *MockListingService) MarkSold(ctx context.Context, id string, actor domain.Actor) (*domain.Listing, error) {
	return m.listing(m.Called(ctx, id, actor))
}

func (m *MockListingService) Update(ctx context.Context, id string, patch domain.Patch, actor domain.Actor) (*domain.Listing, error) {
	return m.listing(m.Called(ctx, id, patch, actor))
}

func (m *MockListingService) Delete(ctx context.Context, id string, actor domain.Actor) error {
	return m.Called(ctx, id, actor).Error(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) session(args mock.Arguments) (*identity.Session, error) {
	if s, ok := args.Get(0).(*identity.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, displayName string) (*identity.Session, error) {
	return m.session(m.Called(ctx, email, password, displayName))
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockAuthService) SignInFederated(ctx context.Context, idToken string) (*identity.Session, error) {
	return m.session(m.Called(ctx, idToken))
}

func (m *MockAuthService) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type MockErrorMetrics struct {
	mock.Mock
}

func (m *MockErrorMetrics) APIError(route, errorType string) {
	m.Called(route, errorType)
}
