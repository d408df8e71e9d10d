//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const testDBName = "test_marketplace_db"

var testDBClient *mongo.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=root",
			"MONGO_INITDB_ROOT_PASSWORD=password",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	uri := fmt.Sprintf("mongodb://root:password@%s/?authSource=admin", resource.GetHostPort("27017/tcp"))

	if err := pool.Retry(func() error {
		var errRetry error
		testDBClient, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if errRetry != nil {
			return errRetry
		}
		return testDBClient.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}

	code := m.Run()

	_ = testDBClient.Disconnect(context.Background())
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func freshDB(t *testing.T) *mongo.Database {
	db := testDBClient.Database(testDBName)
	for _, c := range []string{listingCollectionName, profileCollectionName, credentialCollectionName} {
		_, err := db.Collection(c).DeleteMany(context.Background(), bson.M{})
		require.NoError(t, err)
	}
	return db
}

func newListing(seller string, status domain.ListingStatus, created time.Time) *domain.Listing {
	return &domain.Listing{
		Title:       "Bike",
		Description: "Commuter bike",
		Price:       50,
		Category:    domain.CategorySports,
		Images:      []string{"http://minio/listing-images/" + seller + "/1-0"},
		SellerID:    seller,
		SellerName:  "Sam",
		SellerEmail: seller + "@example.com",
		Status:      status,
		CreatedAt:   created,
	}
}

func TestListingRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(freshDB(t), logger.NewNop())

	created := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	l := newListing("seller-1", domain.StatusPending, created)
	require.NoError(t, repo.Create(ctx, l))
	require.NotEmpty(t, l.ID)
	assert.Equal(t, created.Truncate(time.Millisecond), l.CreatedAt)
	assert.Equal(t, l.CreatedAt, l.UpdatedAt)

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Title, got.Title)
	assert.Equal(t, l.Images, got.Images)
	assert.Equal(t, l.SellerEmail, got.SellerEmail)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.True(t, got.CreatedAt.Equal(l.CreatedAt))

	approvedAt := l.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.UpdateStatus(ctx, l.ID, domain.StatusApproved, approvedAt))
	got, err = repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.True(t, got.UpdatedAt.Equal(approvedAt))

	require.NoError(t, repo.Delete(ctx, l.ID))
	_, err = repo.GetByID(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, l.ID), domain.ErrNotFound)
}

func TestListingRepository_Finders(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(freshDB(t), logger.NewNop())
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	older := newListing("seller-1", domain.StatusApproved, base)
	newer := newListing("seller-1", domain.StatusApproved, base.Add(time.Hour))
	pending := newListing("seller-2", domain.StatusPending, base.Add(2*time.Hour))
	for _, l := range []*domain.Listing{older, newer, pending} {
		require.NoError(t, repo.Create(ctx, l))
	}

	approved, err := repo.FindApproved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, newer.ID, approved[0].ID)
	assert.Equal(t, older.ID, approved[1].ID)

	mine, err := repo.FindBySeller(ctx, "seller-2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, pending.ID, mine[0].ID)

	queue, err := repo.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	none, err := repo.FindBySeller(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListingRepository_MalformedID(t *testing.T) {
	repo := NewListingRepository(freshDB(t), logger.NewNop())
	_, err := repo.GetByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProfileAndCredentialRepositories(t *testing.T) {
	ctx := context.Background()
	db := freshDB(t)
	profiles := NewProfileRepository(db, logger.NewNop())
	creds := NewCredentialRepository(db, logger.NewNop())

	now := time.Now().UTC().Truncate(time.Millisecond)
	p, created, err := profiles.CreateIfAbsent(ctx, &identity.Identity{ID: "id-1", Email: "ann@example.com", DisplayName: "Ann", CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, p.IsAdmin)

	promoted, err := profiles.SetAdminByEmail(ctx, "ann@example.com", true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	// provisioning again never resets the admin flag
	p, created, err = profiles.CreateIfAbsent(ctx, &identity.Identity{ID: "id-1", Email: "ann@example.com", CreatedAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, p.IsAdmin)
	assert.Equal(t, "Ann", p.DisplayName)

	_, err = profiles.SetAdminByEmail(ctx, "ghost@example.com", true)
	assert.ErrorIs(t, err, identity.ErrProfileNotFound)

	cred := &identity.Credential{Email: "ann@example.com", PasswordHash: "hash", IdentityID: "id-1", CreatedAt: now}
	require.NoError(t, creds.Create(ctx, cred))
	assert.ErrorIs(t, creds.Create(ctx, cred), identity.ErrEmailTaken)

	got, err := creds.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.IdentityID)

	_, err = creds.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, identity.ErrCredentialNotFound)
}
