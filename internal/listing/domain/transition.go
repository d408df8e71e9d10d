package domain

import "time"

// Action names an operation subject to authorization.
type Action string

const (
	ActionCreate   Action = "create"
	ActionModerate Action = "moderate"
	ActionMarkSold Action = "mark_sold"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionReview   Action = "review_pending"
)

// Authorize checks whether the actor may perform action on l. l may be nil for
// actions that do not target a listing.
func (a Actor) Authorize(action Action, l *Listing) error {
	var listingID string
	if l != nil {
		listingID = l.ID
	}
	deny := &AuthorizationError{ActorID: a.ID, ListingID: listingID, Action: action}

	if a.ID == "" {
		return deny
	}
	switch action {
	case ActionCreate:
		return nil
	case ActionModerate, ActionReview:
		if a.IsAdmin {
			return nil
		}
	case ActionMarkSold, ActionUpdate, ActionDelete:
		if l != nil && (a.IsAdmin || l.OwnedBy(a.ID)) {
			return nil
		}
	}
	return deny
}

var transitions = map[ListingStatus][]ListingStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusSold},
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to ListingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the listing to status to, stamping UpdatedAt with now.
// UpdatedAt always ends up strictly after CreatedAt.
func (l *Listing) Transition(to ListingStatus, now time.Time) error {
	if !CanTransition(l.Status, to) {
		return &InvalidTransitionError{ListingID: l.ID, From: l.Status, To: to}
	}
	l.Status = to
	l.Touch(now)
	return nil
}

// Touch refreshes UpdatedAt.
func (l *Listing) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Millisecond)
	if !now.After(l.CreatedAt) {
		now = l.CreatedAt.Add(time.Millisecond)
	}
	l.UpdatedAt = now
}

// Apply copies the patch onto an editable listing. Only pending listings can
// be edited; the result is re-validated.
func (l *Listing) Apply(p Patch, now time.Time) error {
	if l.Status != StatusPending {
		return &InvalidTransitionError{ListingID: l.ID, From: l.Status, To: l.Status}
	}
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if err := l.Validate(); err != nil {
		return err
	}
	l.Touch(now)
	return nil
}
