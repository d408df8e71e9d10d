package domain

import (
	"context"
	"time"
)

const (
	SubjectListingCreated   = "listing.created"
	SubjectListingUpdated   = "listing.updated"
	SubjectListingModerated = "listing.moderated"
	SubjectListingSold      = "listing.sold"
	SubjectListingDeleted   = "listing.deleted"
)

// EventPublisher sends lifecycle events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// ListingEvent is the payload of every listing.* subject.
type ListingEvent struct {
	ListingID  string        `json:"listing_id"`
	SellerID   string        `json:"seller_id"`
	ActorID    string        `json:"actor_id"`
	Status     ListingStatus `json:"status,omitempty"`
	PrevStatus ListingStatus `json:"prev_status,omitempty"`
	Title      string        `json:"title,omitempty"`
	Price      float64       `json:"price,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewListingEvent snapshots l for an event emitted by actorID.
func NewListingEvent(l *Listing, actorID string, at time.Time) ListingEvent {
	return ListingEvent{
		ListingID:  l.ID,
		SellerID:   l.SellerID,
		ActorID:    actorID,
		Status:     l.Status,
		Title:      l.Title,
		Price:      l.Price,
		OccurredAt: at.UTC(),
	}
}
