package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jpeg(n int) Image {
	return Image{FileName: "a.jpg", ContentType: "image/jpeg", Data: make([]byte, n)}
}

func validDraft() Draft {
	return Draft{
		Title:       "Bike",
		Description: "Road bike, barely used",
		Price:       50,
		Category:    CategorySports,
		Images:      []Image{jpeg(10), jpeg(20)},
	}
}

func TestDraft_Validate(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		name   string
		mutate func(d *Draft)
		fields []string
	}{
		{"valid", func(d *Draft) {}, nil},
		{"zero price", func(d *Draft) { d.Price = 0 }, []string{"price"}},
		{"negative price", func(d *Draft) { d.Price = -1 }, []string{"price"}},
		{"NaN price", func(d *Draft) { d.Price = math.NaN() }, []string{"price"}},
		{"infinite price", func(d *Draft) { d.Price = math.Inf(1) }, []string{"price"}},
		{"negative infinite price", func(d *Draft) { d.Price = math.Inf(-1) }, []string{"price"}},
		{"blank title", func(d *Draft) { d.Title = "   " }, []string{"title"}},
		{"empty description", func(d *Draft) { d.Description = "" }, []string{"description"}},
		{"unknown category", func(d *Draft) { d.Category = "weapons" }, []string{"category"}},
		{"no images", func(d *Draft) { d.Images = nil }, []string{"images"}},
		{"too many images", func(d *Draft) {
			d.Images = []Image{jpeg(1), jpeg(1), jpeg(1), jpeg(1), jpeg(1), jpeg(1)}
		}, []string{"images"}},
		{"exactly max images", func(d *Draft) {
			d.Images = []Image{jpeg(1), jpeg(1), jpeg(1), jpeg(1), jpeg(1)}
		}, nil},
		{"gif rejected", func(d *Draft) { d.Images[1].ContentType = "image/gif" }, []string{"images[1]"}},
		{"webp with params accepted", func(d *Draft) { d.Images[0].ContentType = "image/webp; q=1" }, nil},
		{"oversized image", func(d *Draft) { d.Images[0] = jpeg(int(limits.MaxImageBytes) + 1) }, []string{"images[0]"}},
		{"several problems", func(d *Draft) { d.Price = 0; d.Title = "" }, []string{"price", "title"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			err := d.Validate(limits)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Len(t, vErr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, vErr.Fields, f)
			}
		})
	}
}

func TestListing_Transition(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		from, to ListingStatus
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusSold, true},
		{StatusPending, StatusSold, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{StatusSold, StatusApproved, false},
		{StatusSold, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			l := &Listing{ID: "l1", Status: tt.from, CreatedAt: created, UpdatedAt: created}
			err := l.Transition(tt.to, created.Add(time.Minute))
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, l.Status)
				assert.Equal(t, created, l.UpdatedAt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, l.Status)
			assert.Equal(t, created.Add(time.Minute), l.UpdatedAt)
		})
	}
}

func TestListing_TransitionKeepsUpdatedAfterCreated(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := &Listing{Status: StatusPending, CreatedAt: created, UpdatedAt: created}

	// clock did not move
	require.NoError(t, l.Transition(StatusApproved, created))
	assert.True(t, l.UpdatedAt.After(l.CreatedAt))
}

func TestActor_Authorize(t *testing.T) {
	owned := &Listing{ID: "l1", SellerID: "owner"}
	owner := Actor{ID: "owner"}
	admin := Actor{ID: "root", IsAdmin: true}
	stranger := Actor{ID: "someone"}

	tests := []struct {
		name    string
		actor   Actor
		action  Action
		allowed bool
	}{
		{"anonymous create", Actor{}, ActionCreate, false},
		{"user create", stranger, ActionCreate, true},
		{"owner moderate", owner, ActionModerate, false},
		{"admin moderate", admin, ActionModerate, true},
		{"owner delete", owner, ActionDelete, true},
		{"admin delete", admin, ActionDelete, true},
		{"stranger delete", stranger, ActionDelete, false},
		{"owner sold", owner, ActionMarkSold, true},
		{"stranger sold", stranger, ActionMarkSold, false},
		{"stranger update", stranger, ActionUpdate, false},
		{"user pending queue", owner, ActionReview, false},
		{"admin pending queue", admin, ActionReview, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.actor.Authorize(tt.action, owned)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestListing_Apply(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	base := func(s ListingStatus) *Listing {
		return &Listing{ID: "l1", Title: "Bike", Description: "d", Price: 50, Category: CategorySports, Status: s, CreatedAt: created, UpdatedAt: created}
	}

	t.Run("pending edits apply", func(t *testing.T) {
		l := base(StatusPending)
		title, price := "Gravel bike", 75.5
		require.NoError(t, l.Apply(Patch{Title: &title, Price: &price}, created.Add(time.Second)))
		assert.Equal(t, "Gravel bike", l.Title)
		assert.Equal(t, 75.5, l.Price)
		assert.Equal(t, created.Add(time.Second), l.UpdatedAt)
	})

	t.Run("invalid edit rejected", func(t *testing.T) {
		l := base(StatusPending)
		price := 0.0
		assert.ErrorIs(t, l.Apply(Patch{Price: &price}, created), ErrValidation)

		inf := math.Inf(1)
		assert.ErrorIs(t, l.Apply(Patch{Price: &inf}, created), ErrValidation)
	})

	t.Run("approved listing is frozen", func(t *testing.T) {
		l := base(StatusApproved)
		title := "x"
		assert.ErrorIs(t, l.Apply(Patch{Title: &title}, created), ErrInvalidTransition)
		assert.Equal(t, "Bike", l.Title)
	})
}

func TestEnumerations(t *testing.T) {
	assert.Equal(t, "Clothing & Fashion", CategoryClothing.Label())
	assert.Equal(t, "Sports & Recreation", CategorySports.Label())
	assert.Len(t, Categories, 7)

	assert.Equal(t, "yellow", StatusPending.Color())
	assert.Equal(t, "green", StatusApproved.Color())
	assert.Equal(t, "red", StatusRejected.Color())
	assert.Equal(t, "gray", StatusSold.Color())

	s, err := ParseStatus(" Approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)
	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestActor_SellerName(t *testing.T) {
	assert.Equal(t, "Anonymous", Actor{ID: "x"}.SellerName())
	assert.Equal(t, "Ann", Actor{ID: "x", DisplayName: "Ann"}.SellerName())
}

func TestImageObjectKey(t *testing.T) {
	at := time.UnixMilli(1714557600123)
	assert.Equal(t, "u1/1714557600123-0", ImageObjectKey("u1", at, 0))
	assert.True(t, strings.HasSuffix(ImageObjectKey("u1", at, 4), "-4"))
}

func TestErrors_Taxonomy(t *testing.T) {
	cause := errors.New("connection reset")
	sErr := &StorageError{Op: "upload", Err: cause}
	assert.ErrorIs(t, sErr, ErrStorage)
	assert.ErrorIs(t, sErr, cause)
	assert.NotErrorIs(t, sErr, ErrNotFound)

	assert.ErrorIs(t, &NotFoundError{ListingID: "x"}, ErrNotFound)
	assert.ErrorIs(t, &AuthorizationError{ActorID: "a"}, ErrForbidden)
	assert.ErrorIs(t, &InvalidTransitionError{From: StatusSold, To: StatusApproved}, ErrInvalidTransition)

	v := &ValidationError{Fields: map[string]string{"title": "required", "price": "positive"}}
	assert.Equal(t, "validation failed: price: positive; title: required", v.Error())
}
