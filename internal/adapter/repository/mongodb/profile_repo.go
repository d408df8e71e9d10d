package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	profileCollectionName    = "profiles"
	credentialCollectionName = "credentials"
)

// ProfileRepository stores identity profiles. Profiles are never deleted.
type ProfileRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewProfileRepository(db *mongo.Database, log *logger.Logger) *ProfileRepository {
	collection := db.Collection(profileCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}})
	if err != nil {
		log.Warn("Failed to create indexes for profiles collection", zap.Error(err))
	}

	return &ProfileRepository{collection: collection, logger: log.Named("ProfileRepository")}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*domain.Identity, error) {
	var doc profileDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		r.logger.Error("Failed to load profile", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// CreateIfAbsent upserts with $setOnInsert so an existing profile, including
// its admin flag, is left untouched.
func (r *ProfileRepository) CreateIfAbsent(ctx context.Context, identity *domain.Identity) (*domain.Identity, bool, error) {
	doc := toProfileDocument(identity)
	update := bson.M{"$setOnInsert": bson.M{
		"email":        doc.Email,
		"display_name": doc.DisplayName,
		"photo_url":    doc.PhotoURL,
		"is_admin":     false,
		"created_at":   doc.CreatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert profile", zap.String("user_id", doc.ID), zap.Error(err))
		return nil, false, fmt.Errorf("db upsert failed: %w", err)
	}
	stored, err := r.Get(ctx, doc.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.UpsertedCount > 0, nil
}

func (r *ProfileRepository) SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*domain.Identity, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var stored profileDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"is_admin": isAdmin}}, opts).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return stored.toDomain(), nil
}

// CredentialRepository stores email/password logins, one per email.
type CredentialRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewCredentialRepository(db *mongo.Database, log *logger.Logger) *CredentialRepository {
	collection := db.Collection(credentialCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Warn("Failed to create unique email index for credentials collection", zap.Error(err))
	}

	return &CredentialRepository{collection: collection, logger: log.Named("CredentialRepository")}
}

func (r *CredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	doc := &credentialDocument{
		Email:        cred.Email,
		PasswordHash: cred.PasswordHash,
		IdentityID:   cred.IdentityID,
		CreatedAt:    cred.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		r.logger.Error("Failed to insert credential", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	var doc credentialDocument
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}
