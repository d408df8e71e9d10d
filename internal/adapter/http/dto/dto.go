package dto

import (
	"time"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type FederatedSignInRequest struct {
	IDToken string `json:"id_token"`
}

// UpdateListingRequest carries only the fields being changed.
type UpdateListingRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

func (r UpdateListingRequest) ToPatch() domain.Patch {
	p := domain.Patch{Title: r.Title, Description: r.Description, Price: r.Price}
	if r.Category != nil {
		c := domain.Category(*r.Category)
		p.Category = &c
	}
	return p
}

type IdentityResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToIdentityResponse(i *identity.Identity) IdentityResponse {
	return IdentityResponse{
		ID:          i.ID,
		Email:       i.Email,
		DisplayName: i.DisplayName,
		PhotoURL:    i.PhotoURL,
		IsAdmin:     i.IsAdmin,
		CreatedAt:   i.CreatedAt,
	}
}

type SessionResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  IdentityResponse `json:"identity"`
}

func ToSessionResponse(s *identity.Session) SessionResponse {
	return SessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, Identity: ToIdentityResponse(s.Identity)}
}

type ListingResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Images      []string  `json:"images"`
	SellerID    string    `json:"seller_id"`
	SellerName  string    `json:"seller_name"`
	SellerEmail string    `json:"seller_email"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToListingResponse(l *domain.Listing) ListingResponse {
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return ListingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    string(l.Category),
		Images:      images,
		SellerID:    l.SellerID,
		SellerName:  l.SellerName,
		SellerEmail: l.SellerEmail,
		Status:      string(l.Status),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func (r ListingResponse) ToDomain() *domain.Listing {
	return &domain.Listing{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Category:    domain.Category(r.Category),
		Images:      r.Images,
		SellerID:    r.SellerID,
		SellerName:  r.SellerName,
		SellerEmail: r.SellerEmail,
		Status:      domain.ListingStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type ListingsResponse struct {
	Listings []ListingResponse `json:"listings"`
}

func ToListingsResponse(ls []*domain.Listing) ListingsResponse {
	out := make([]ListingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, ToListingResponse(l))
	}
	return ListingsResponse{Listings: out}
}

type CategoryInfo struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type StatusInfo struct {
	Value string `json:"value"`
	Color string `json:"color"`
}

type MetaResponse struct {
	Categories    []CategoryInfo `json:"categories"`
	Statuses      []StatusInfo   `json:"statuses"`
	MaxImages     int            `json:"max_images"`
	MaxImageBytes int64          `json:"max_image_bytes"`
	ContentTypes  []string       `json:"content_types"`
}

func NewMetaResponse(limits domain.Limits) MetaResponse {
	meta := MetaResponse{
		MaxImages:     limits.MaxImages,
		MaxImageBytes: limits.MaxImageBytes,
		ContentTypes:  limits.AllowedContentTypes,
	}
	for _, c := range domain.Categories {
		meta.Categories = append(meta.Categories, CategoryInfo{Value: string(c), Label: c.Label()})
	}
	for _, s := range domain.Statuses {
		meta.Statuses = append(meta.Statuses, StatusInfo{Value: string(s), Color: s.Color()})
	}
	return meta
}
