package domain

import (
	"context"
	"time"
)

// ListingRepository persists listings. It knows nothing about identities;
// callers enforce access rules.
type ListingRepository interface {
	// Create assigns ID and sets CreatedAt == UpdatedAt.
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, listing *Listing) error
	UpdateStatus(ctx context.Context, id string, status ListingStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error

	// Finders return newest first.
	FindApproved(ctx context.Context) ([]*Listing, error)
	FindBySeller(ctx context.Context, sellerID string) ([]*Listing, error)
	FindPending(ctx context.Context) ([]*Listing, error)
}

// MediaStore keeps listing images.
type MediaStore interface {
	// Upload stores the image under key and returns its stable reference.
	Upload(ctx context.Context, key string, img Image) (string, error)
	// Delete removes the object behind ref. Missing objects are not an error.
	Delete(ctx context.Context, ref string) error
}

// ListingCache is a read-through cache in front of the repository.
type ListingCache interface {
	Listing(ctx context.Context, id string, load func(ctx context.Context) (*Listing, error)) (*Listing, error)
	Approved(ctx context.Context, load func(ctx context.Context) ([]*Listing, error)) ([]*Listing, error)
	// Invalidate drops the given listings and the approved feed.
	Invalidate(ctx context.Context, ids ...string) error
}

// Notifier tells sellers about moderation decisions.
type Notifier interface {
	NotifyModerated(ctx context.Context, listing *Listing) error
}

// Sanitizer strips markup from user supplied text.
type Sanitizer interface {
	Sanitize(s string) string
}
