package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}
func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockListingRepository) FindApproved(ctx context.Context) ([]*domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindBySeller(ctx context.Context, sellerID string) ([]*domain.Listing, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindPending(ctx context.Context) ([]*domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

type MockMediaStore struct{ mock.Mock }

func (m *MockMediaStore) Upload(ctx context.Context, key string, img domain.Image) (string, error) {
	args := m.Called(ctx, key, img)
	return args.String(0), args.Error(1)
}
func (m *MockMediaStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) Listing(ctx context.Context, id string, load func(context.Context) (*domain.Listing, error)) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Bool(0) {
		return load(ctx)
	}
	if args.Get(1) == nil {
		return nil, args.Error(2)
	}
	return args.Get(1).(*domain.Listing), args.Error(2)
}
func (m *MockListingCache) Approved(ctx context.Context, load func(context.Context) ([]*domain.Listing, error)) ([]*domain.Listing, error) {
	m.Called(ctx)
	return load(ctx)
}
func (m *MockListingCache) Invalidate(ctx context.Context, ids ...string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyModerated(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) ListingCreated()                   { m.Called() }
func (m *MockMetrics) ListingTransitioned(status string) { m.Called(status) }
func (m *MockMetrics) ListingDeleted()                   { m.Called() }
func (m *MockMetrics) ImageUploaded(ok bool)             { m.Called(ok) }
func (m *MockMetrics) ImageDeleteFailed()                { m.Called() }
