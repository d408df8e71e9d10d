package domain

import (
	"fmt"
	"math"
	"strings"
)

// Limits bound the image set of a listing.
type Limits struct {
	MaxImages           int
	MaxImageBytes       int64
	AllowedContentTypes []string
}

// DefaultLimits allows up to five JPEG, PNG or WebP images of at most 10 MiB.
func DefaultLimits() Limits {
	return Limits{
		MaxImages:           5,
		MaxImageBytes:       10 << 20,
		AllowedContentTypes: []string{"image/jpeg", "image/png", "image/webp"},
	}
}

func (l Limits) allows(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, a := range l.AllowedContentTypes {
		if ct == a {
			return true
		}
	}
	return false
}

// Validate checks every creation guard and reports all failing fields at once.
func (d Draft) Validate(limits Limits) error {
	fields := map[string]string{}
	validateText(fields, d.Title, d.Description)
	validatePrice(fields, d.Price)
	validateCategory(fields, d.Category)

	switch n := len(d.Images); {
	case n == 0:
		fields["images"] = "at least one image is required"
	case n > limits.MaxImages:
		fields["images"] = fmt.Sprintf("at most %d images are allowed", limits.MaxImages)
	default:
		for i, img := range d.Images {
			key := fmt.Sprintf("images[%d]", i)
			switch {
			case len(img.Data) == 0:
				fields[key] = "image is empty"
			case int64(len(img.Data)) > limits.MaxImageBytes:
				fields[key] = fmt.Sprintf("image exceeds %d bytes", limits.MaxImageBytes)
			case !limits.allows(img.ContentType):
				fields[key] = fmt.Sprintf("unsupported content type %q", img.ContentType)
			}
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Validate checks the editable fields of an existing listing.
func (l *Listing) Validate() error {
	fields := map[string]string{}
	validateText(fields, l.Title, l.Description)
	validatePrice(fields, l.Price)
	validateCategory(fields, l.Category)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateText(fields map[string]string, title, description string) {
	if strings.TrimSpace(title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(description) == "" {
		fields["description"] = "description is required"
	}
}

func validatePrice(fields map[string]string, price float64) {
	switch {
	case math.IsInf(price, 0) || math.IsNaN(price):
		fields["price"] = "price must be a finite number"
	case price <= 0:
		fields["price"] = "price must be greater than zero"
	}
}

func validateCategory(fields map[string]string, c Category) {
	if !c.IsValid() {
		fields["category"] = fmt.Sprintf("unknown category %q", c)
	}
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (ListingStatus, error) {
	s := ListingStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown status %q", raw))
	}
	return s, nil
}
