package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/dto"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/response"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/client"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, h http.HandlerFunc) *app {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := client.New(srv.URL)
	require.NoError(t, err)
	sess := session.New(api, api, logger.NewNop())
	t.Cleanup(sess.Close)
	return &app{api: api, session: sess, log: logger.NewNop(), json: true}
}

func TestRun_ApproveUpdatesViews(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/signin":
			response.JSON(w, http.StatusOK, dto.SessionResponse{
				Token:    "tok",
				Identity: dto.IdentityResponse{ID: "admin", Email: "root@example.com", IsAdmin: true, CreatedAt: at},
			})
		case "/api/v1/admin/listings/pending":
			response.JSON(w, http.StatusOK, dto.ListingsResponse{Listings: []dto.ListingResponse{
				{ID: "l1", Title: "Bike", Status: "pending"},
				{ID: "l2", Title: "Lamp", Status: "pending"},
			}})
		case "/api/v1/admin/listings/l1/approve":
			response.JSON(w, http.StatusOK, dto.ListingResponse{ID: "l1", Title: "Bike", Status: "approved"})
		default:
			response.Error(w, http.StatusNotFound, response.CodeNotFound, "route not found", nil)
		}
	})
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "signin", []string{"--email", "root@example.com", "--password", "secret1"}))
	assert.Equal(t, "tok", a.session.Token())
	require.NotNil(t, a.session.Identity())
	assert.True(t, a.session.Identity().IsAdmin)

	require.NoError(t, a.run(ctx, "list", []string{"pending"}))
	require.NoError(t, a.run(ctx, "approve", []string{"l1"}))

	pending, stale := a.session.Views().Listings(session.ViewPending)
	assert.False(t, stale)
	require.Len(t, pending, 1)
	assert.Equal(t, "l2", pending[0].ID)

	_, approvedStale := a.session.Views().Listings(session.ViewApproved)
	assert.True(t, approvedStale)
}

func TestRun_Errors(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, response.CodeNotFound, "listing not found", nil)
	})
	ctx := context.Background()

	assert.ErrorIs(t, a.run(ctx, "get", []string{"nope"}), domain.ErrNotFound)
	assert.ErrorIs(t, a.run(ctx, "get", nil), errUsage)
	assert.ErrorIs(t, a.run(ctx, "update", []string{"l1"}), errUsage)
	assert.ErrorIs(t, a.run(ctx, "list", []string{"everything"}), errUsage)
	assert.Error(t, a.run(ctx, "frobnicate", nil))
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bike.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	img, err := readImage(path)
	require.NoError(t, err)
	assert.Equal(t, "bike.png", img.FileName)
	assert.Equal(t, "image/png", img.ContentType)

	_, err = readImage(filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}
