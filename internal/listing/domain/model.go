package domain

import (
	"fmt"
	"time"
)

// ListingStatus is the moderation/lifecycle state of a listing.
type ListingStatus string

const (
	StatusPending  ListingStatus = "pending"
	StatusApproved ListingStatus = "approved"
	StatusRejected ListingStatus = "rejected"
	StatusSold     ListingStatus = "sold"
)

// Statuses lists every status in display order.
var Statuses = []ListingStatus{StatusPending, StatusApproved, StatusRejected, StatusSold}

// IsValid checks if the status is one of the defined constants.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSold:
		return true
	}
	return false
}

// Color is the badge colour clients render for the status.
func (s ListingStatus) Color() string {
	switch s {
	case StatusPending:
		return "yellow"
	case StatusApproved:
		return "green"
	case StatusRejected:
		return "red"
	case StatusSold:
		return "gray"
	}
	return "gray"
}

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryHome        Category = "home"
	CategoryBooks       Category = "books"
	CategorySports      Category = "sports"
	CategoryAutomotive  Category = "automotive"
	CategoryOther       Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHome,
	CategoryBooks,
	CategorySports,
	CategoryAutomotive,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryElectronics: "Electronics",
	CategoryClothing:    "Clothing & Fashion",
	CategoryHome:        "Home & Garden",
	CategoryBooks:       "Books & Media",
	CategorySports:      "Sports & Recreation",
	CategoryAutomotive:  "Automotive",
	CategoryOther:       "Other",
}

func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable category name, or the raw value when unknown.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Listing is an item offered for sale. SellerName and SellerEmail are copied
// from the seller's profile when the listing is created and never refreshed.
type Listing struct {
	ID          string
	Title       string
	Description string
	Price       float64
	Category    Category
	Images      []string // media store references, in upload order
	SellerID    string
	SellerName  string
	SellerEmail string
	Status      ListingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OwnedBy reports whether the identity created the listing.
func (l *Listing) OwnedBy(identityID string) bool {
	return identityID != "" && l.SellerID == identityID
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
}

const anonymousSeller = "Anonymous"

// SellerName is the name denormalized into listings the actor creates.
func (a Actor) SellerName() string {
	if a.DisplayName == "" {
		return anonymousSeller
	}
	return a.DisplayName
}

// Image is an upload payload.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Draft is the input of listing creation.
type Draft struct {
	Title       string
	Description string
	Price       float64
	Category    Category
	Images      []Image
}

// Patch carries the editable fields of a pending listing. Nil fields are left as is.
type Patch struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *Category
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Category == nil
}

// ImageObjectKey builds the storage key for the index-th image of a batch
// uploaded by ownerID at the given instant.
func ImageObjectKey(ownerID string, at time.Time, index int) string {
	return fmt.Sprintf("%s/%d-%d", ownerID, at.UnixMilli(), index)
}

// Now returns the current time in the precision listings are stored with.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
