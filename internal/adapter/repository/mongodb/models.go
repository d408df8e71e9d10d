package mongodb

import (
	"fmt"
	"time"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listingDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Price       float64              `bson:"price"`
	Category    domain.Category      `bson:"category"`
	Images      []string             `bson:"images"`
	SellerID    string               `bson:"seller_id"`
	SellerName  string               `bson:"seller_name"`
	SellerEmail string               `bson:"seller_email"`
	Status      domain.ListingStatus `bson:"status"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

// toListingDocument converts a domain listing. An empty ID yields NilObjectID
// so the repository can assign one on insert.
func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	docID := primitive.NilObjectID
	if l.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid listing id %q: %w", l.ID, err)
		}
	}
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return &listingDocument{
		ID:          docID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    l.Category,
		Images:      images,
		SellerID:    l.SellerID,
		SellerName:  l.SellerName,
		SellerEmail: l.SellerEmail,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}, nil
}

func (d *listingDocument) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Images:      d.Images,
		SellerID:    d.SellerID,
		SellerName:  d.SellerName,
		SellerEmail: d.SellerEmail,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out
}

// profileDocument is keyed by the identity id itself.
type profileDocument struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name"`
	PhotoURL    string    `bson:"photo_url,omitempty"`
	IsAdmin     bool      `bson:"is_admin"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toProfileDocument(i *identity.Identity) *profileDocument {
	return &profileDocument{
		ID:          i.ID,
		Email:       i.Email,
		DisplayName: i.DisplayName,
		PhotoURL:    i.PhotoURL,
		IsAdmin:     i.IsAdmin,
		CreatedAt:   i.CreatedAt,
	}
}

func (d *profileDocument) toDomain() *identity.Identity {
	return &identity.Identity{
		ID:          d.ID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		PhotoURL:    d.PhotoURL,
		IsAdmin:     d.IsAdmin,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type credentialDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	IdentityID   string             `bson:"identity_id"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *credentialDocument) toDomain() *identity.Credential {
	return &identity.Credential{
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IdentityID:   d.IdentityID,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}
