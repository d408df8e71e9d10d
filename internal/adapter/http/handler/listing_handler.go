package handler

import (
	"context"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/dto"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/response"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

const (
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
	imagesField       = "images"
)

type ListingService interface {
	Create(ctx context.Context, draft domain.Draft, actor domain.Actor) (*domain.Listing, error)
	Get(ctx context.Context, id string) (*domain.Listing, error)
	Approved(ctx context.Context) ([]*domain.Listing, error)
	BySeller(ctx context.Context, sellerID string) ([]*domain.Listing, error)
	Pending(ctx context.Context, actor domain.Actor) ([]*domain.Listing, error)
	Moderate(ctx context.Context, id string, target domain.ListingStatus, actor domain.Actor) (*domain.Listing, error)
	MarkSold(ctx context.Context, id string, actor domain.Actor) (*domain.Listing, error)
	Update(ctx context.Context, id string, patch domain.Patch, actor domain.Actor) (*domain.Listing, error)
	Delete(ctx context.Context, id string, actor domain.Actor) error
}

type ListingHandler struct {
	listings ListingService
	limits   domain.Limits
	errorWriter
}

func NewListingHandler(listings ListingService, limits domain.Limits, metrics ErrorMetrics, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		listings:    listings,
		limits:      limits,
		errorWriter: errorWriter{metrics: metrics, logger: log.Named("ListingHandler")},
	}
}

func (h *ListingHandler) Meta(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, dto.NewMetaResponse(h.limits))
}

func (h *ListingHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	ls, err := h.listings.Approved(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToListingsResponse(ls))
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToListingResponse(l))
}

func (h *ListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	ls, err := h.listings.BySeller(r.Context(), actor.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToListingsResponse(ls))
}

func (h *ListingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ls, err := h.listings.Pending(r.Context(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToListingsResponse(ls))
}

// Create accepts multipart/form-data: title, description, price, category
// and one or more files under "images".
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	maxBody := int64(h.limits.MaxImages)*h.limits.MaxImageBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.write(w, r, http.StatusRequestEntityTooLarge, response.CodeValidation, "request body too large", nil)
			return
		}
		h.badRequest(w, r, "expected multipart/form-data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	draft := domain.Draft{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    domain.Category(strings.TrimSpace(r.FormValue("category"))),
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.fail(w, r, domain.NewValidationError("price", "must be a number"))
			return
		}
		if math.IsInf(price, 0) || math.IsNaN(price) {
			h.fail(w, r, domain.NewValidationError("price", "must be a finite number"))
			return
		}
		draft.Price = price
	}

	images, err := h.readImages(r.MultipartForm.File[imagesField])
	if err != nil {
		h.badRequest(w, r, "could not read uploaded images")
		return
	}
	draft.Images = images

	l, err := h.listings.Create(r.Context(), draft, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/listings/"+l.ID)
	response.JSON(w, http.StatusCreated, dto.ToListingResponse(l))
}

// readImages reads at most one byte past the size limit so the domain
// validation still reports oversized files.
func (h *ListingHandler) readImages(files []*multipart.FileHeader) ([]domain.Image, error) {
	images := make([]domain.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, h.limits.MaxImageBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, err
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		images = append(images, domain.Image{FileName: fh.Filename, ContentType: contentType, Data: data})
	}
	return images, nil
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	l, err := h.listings.Update(r.Context(), chi.URLParam(r, "id"), req.ToPatch(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToListingResponse(l))
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.Delete(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) MarkSold(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.MarkSold(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToListingResponse(l))
}

func (h *ListingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, domain.StatusApproved)
}

func (h *ListingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, domain.StatusRejected)
}

func (h *ListingHandler) moderate(w http.ResponseWriter, r *http.Request, target domain.ListingStatus) {
	l, err := h.listings.Moderate(r.Context(), chi.URLParam(r, "id"), target, middleware.ActorFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToListingResponse(l))
}
