package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// View names one of the cached listing collections.
type View int

const (
	ViewApproved View = iota
	ViewMine
	ViewPending
)

var allViews = []View{ViewApproved, ViewMine, ViewPending}

func (v View) String() string {
	switch v {
	case ViewApproved:
		return "approved"
	case ViewMine:
		return "mine"
	case ViewPending:
		return "pending"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// ListingSource fetches the server-side collections behind each view.
type ListingSource interface {
	Approved(ctx context.Context) ([]*domain.Listing, error)
	Mine(ctx context.Context) ([]*domain.Listing, error)
	Pending(ctx context.Context) ([]*domain.Listing, error)
}

type viewData struct {
	items   []*domain.Listing
	stale   bool
	loading bool
	// gen changes on every local mutation so a Refresh can tell whether its
	// fetch raced with one.
	gen uint64
}

// ViewState caches the approved, mine and pending collections between
// refreshes. A view that was never refreshed is empty and stale.
type ViewState struct {
	source ListingSource

	mu    sync.RWMutex
	views map[View]*viewData
}

func NewViewState(source ListingSource) *ViewState {
	vs := &ViewState{source: source, views: make(map[View]*viewData, len(allViews))}
	for _, v := range allViews {
		vs.views[v] = &viewData{stale: true}
	}
	return vs
}

func (vs *ViewState) fetch(ctx context.Context, v View) ([]*domain.Listing, error) {
	switch v {
	case ViewApproved:
		return vs.source.Approved(ctx)
	case ViewMine:
		return vs.source.Mine(ctx)
	case ViewPending:
		return vs.source.Pending(ctx)
	}
	return nil, fmt.Errorf("unknown view %s", v)
}

// Refresh reloads the view from the source. On failure the previous snapshot
// and its stale flag are kept. If the view was invalidated, cleared or edited
// while the fetch was in flight, the fetched items are dropped and the view
// stays stale.
func (vs *ViewState) Refresh(ctx context.Context, v View) error {
	vs.mu.Lock()
	d, ok := vs.views[v]
	if !ok {
		vs.mu.Unlock()
		return fmt.Errorf("unknown view %s", v)
	}
	d.loading = true
	gen := d.gen
	vs.mu.Unlock()

	items, err := vs.fetch(ctx, v)

	vs.mu.Lock()
	defer vs.mu.Unlock()
	d.loading = false
	if err != nil {
		return fmt.Errorf("refresh %s listings: %w", v, err)
	}
	if d.gen != gen {
		d.stale = true
		return nil
	}
	d.items = items
	d.stale = false
	return nil
}

// Invalidate marks the given views stale, or all of them when none is given.
func (vs *ViewState) Invalidate(views ...View) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for _, v := range orAll(views) {
		if d, ok := vs.views[v]; ok {
			d.stale = true
			d.gen++
		}
	}
}

// Clear empties the given views (all when none is given) and marks them stale.
func (vs *ViewState) Clear(views ...View) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for _, v := range orAll(views) {
		if d, ok := vs.views[v]; ok {
			d.items = nil
			d.stale = true
			d.gen++
		}
	}
}

// Listings returns a copy of the cached snapshot and whether it is stale.
func (vs *ViewState) Listings(v View) ([]*domain.Listing, bool) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	d, ok := vs.views[v]
	if !ok {
		return nil, true
	}
	out := make([]*domain.Listing, len(d.items))
	for i, l := range d.items {
		cp := *l
		out[i] = &cp
	}
	return out, d.stale
}

// Loading reports whether a Refresh of the view is in flight.
func (vs *ViewState) Loading(v View) bool {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	d, ok := vs.views[v]
	return ok && d.loading
}

// ApplyStatus records a status change made through the API. The pending view
// drops the listing, mine reflects the new status, and approved keeps only
// approved listings. A newly approved listing that approved has never seen
// marks that view stale.
func (vs *ViewState) ApplyStatus(id string, status domain.ListingStatus) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	pending := vs.views[ViewPending]
	pending.items = without(pending.items, id)
	pending.gen++

	mine := vs.views[ViewMine]
	mine.items = withStatus(mine.items, id, status)
	mine.gen++

	approved := vs.views[ViewApproved]
	approved.gen++
	if status != domain.StatusApproved {
		approved.items = without(approved.items, id)
		return
	}
	if !contains(approved.items, id) {
		approved.stale = true
		return
	}
	approved.items = withStatus(approved.items, id, status)
}

// Remove evicts the listing from every view.
func (vs *ViewState) Remove(id string) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for _, d := range vs.views {
		d.items = without(d.items, id)
		d.gen++
	}
}

func orAll(views []View) []View {
	if len(views) == 0 {
		return allViews
	}
	return views
}

func contains(items []*domain.Listing, id string) bool {
	for _, l := range items {
		if l.ID == id {
			return true
		}
	}
	return false
}

func without(items []*domain.Listing, id string) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(items))
	for _, l := range items {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func withStatus(items []*domain.Listing, id string, status domain.ListingStatus) []*domain.Listing {
	out := make([]*domain.Listing, len(items))
	for i, l := range items {
		if l.ID == id {
			cp := *l
			cp.Status = status
			l = &cp
		}
		out[i] = l
	}
	return out
}
