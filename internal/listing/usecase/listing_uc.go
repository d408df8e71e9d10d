package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Metrics is the part of the metrics manager the lifecycle reports to.
type Metrics interface {
	ListingCreated()
	ListingTransitioned(status string)
	ListingDeleted()
	ImageUploaded(ok bool)
	ImageDeleteFailed()
}

// ListingUsecase implements the listing lifecycle.
type ListingUsecase struct {
	repo      domain.ListingRepository
	media     domain.MediaStore
	cache     domain.ListingCache
	events    domain.EventPublisher
	notifier  domain.Notifier
	sanitizer domain.Sanitizer
	metrics   Metrics
	limits    domain.Limits
	now       func() time.Time
	logger    *logger.Logger
}

// NewListingUsecase wires the lifecycle. repo and media are required; the
// remaining collaborators may be nil.
func NewListingUsecase(
	repo domain.ListingRepository,
	media domain.MediaStore,
	cache domain.ListingCache,
	events domain.EventPublisher,
	notifier domain.Notifier,
	sanitizer domain.Sanitizer,
	metrics Metrics,
	limits domain.Limits,
	log *logger.Logger,
) *ListingUsecase {
	if cache == nil {
		cache = passThroughCache{}
	}
	if sanitizer == nil {
		sanitizer = trimSanitizer{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ListingUsecase{
		repo:      repo,
		media:     media,
		cache:     cache,
		events:    events,
		notifier:  notifier,
		sanitizer: sanitizer,
		metrics:   metrics,
		limits:    limits,
		now:       domain.Now,
		logger:    log.Named("ListingUsecase"),
	}
}

// Create validates the draft, uploads its images concurrently and stores a
// pending listing. Uploaded images are removed again if anything after the
// first upload fails.
func (uc *ListingUsecase) Create(ctx context.Context, draft domain.Draft, actor domain.Actor) (*domain.Listing, error) {
	if err := actor.Authorize(domain.ActionCreate, nil); err != nil {
		uc.logger.Warn("Unauthenticated create attempt")
		return nil, err
	}

	draft.Title = uc.sanitizer.Sanitize(draft.Title)
	draft.Description = uc.sanitizer.Sanitize(draft.Description)
	if err := draft.Validate(uc.limits); err != nil {
		uc.logger.Info("Listing draft rejected", zap.String("seller_id", actor.ID), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("Creating listing",
		zap.String("seller_id", actor.ID),
		zap.String("category", string(draft.Category)),
		zap.Int("images", len(draft.Images)))

	now := uc.now()
	refs, err := uc.uploadImages(ctx, actor.ID, now, draft.Images)
	if err != nil {
		uc.discardImages(ctx, refs)
		return nil, &domain.StorageError{Op: "upload images", Err: err}
	}

	listing := &domain.Listing{
		Title:       draft.Title,
		Description: draft.Description,
		Price:       draft.Price,
		Category:    draft.Category,
		Images:      refs,
		SellerID:    actor.ID,
		SellerName:  actor.SellerName(),
		SellerEmail: actor.Email,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("Failed to persist listing", zap.String("seller_id", actor.ID), zap.Error(err))
		uc.discardImages(ctx, refs)
		return nil, &domain.StorageError{Op: "create listing", Err: err}
	}

	uc.metrics.ListingCreated()
	uc.publish(ctx, domain.SubjectListingCreated, domain.NewListingEvent(listing, actor.ID, now))
	uc.logger.Info("Listing created", zap.String("listing_id", listing.ID))
	return listing, nil
}

// uploadImages returns the references in input order. On failure the slice
// holds the references of the uploads that did succeed.
func (uc *ListingUsecase) uploadImages(ctx context.Context, ownerID string, at time.Time, images []domain.Image) ([]string, error) {
	refs := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range images {
		g.Go(func() error {
			ref, err := uc.media.Upload(gctx, domain.ImageObjectKey(ownerID, at, i), img)
			uc.metrics.ImageUploaded(err == nil)
			if err != nil {
				uc.logger.Warn("Image upload failed", zap.Int("index", i), zap.Error(err))
				return fmt.Errorf("image %d: %w", i, err)
			}
			refs[i] = ref
			return nil
		})
	}
	err := g.Wait()
	return refs, err
}

// discardImages deletes uploaded images on a best-effort basis. It runs even
// when ctx is already cancelled.
func (uc *ListingUsecase) discardImages(ctx context.Context, refs []string) {
	cctx := context.WithoutCancel(ctx)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := uc.media.Delete(cctx, ref); err != nil {
			uc.metrics.ImageDeleteFailed()
			uc.logger.Warn("Failed to discard uploaded image", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func (uc *ListingUsecase) Get(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := uc.cache.Listing(ctx, id, func(ctx context.Context) (*domain.Listing, error) {
		return uc.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, repoErr("get listing", id, err)
	}
	return l, nil
}

// Approved returns the public feed, newest first.
func (uc *ListingUsecase) Approved(ctx context.Context) ([]*domain.Listing, error) {
	ls, err := uc.cache.Approved(ctx, uc.repo.FindApproved)
	if err != nil {
		uc.logger.Error("Failed to load approved listings", zap.Error(err))
		return nil, &domain.StorageError{Op: "find approved", Err: err}
	}
	return ls, nil
}

// BySeller returns every listing of a seller regardless of status.
func (uc *ListingUsecase) BySeller(ctx context.Context, sellerID string) ([]*domain.Listing, error) {
	if strings.TrimSpace(sellerID) == "" {
		return nil, domain.NewValidationError("seller_id", "seller id is required")
	}
	ls, err := uc.repo.FindBySeller(ctx, sellerID)
	if err != nil {
		uc.logger.Error("Failed to load seller listings", zap.String("seller_id", sellerID), zap.Error(err))
		return nil, &domain.StorageError{Op: "find by seller", Err: err}
	}
	return ls, nil
}

// Pending returns the moderation queue. Administrators only.
func (uc *ListingUsecase) Pending(ctx context.Context, actor domain.Actor) ([]*domain.Listing, error) {
	if err := actor.Authorize(domain.ActionReview, nil); err != nil {
		uc.logger.Warn("Non-admin requested moderation queue", zap.String("actor_id", actor.ID))
		return nil, err
	}
	ls, err := uc.repo.FindPending(ctx)
	if err != nil {
		uc.logger.Error("Failed to load pending listings", zap.Error(err))
		return nil, &domain.StorageError{Op: "find pending", Err: err}
	}
	return ls, nil
}

// Moderate approves or rejects a pending listing and notifies its seller.
func (uc *ListingUsecase) Moderate(ctx context.Context, id string, target domain.ListingStatus, actor domain.Actor) (*domain.Listing, error) {
	if target != domain.StatusApproved && target != domain.StatusRejected {
		return nil, domain.NewValidationError("status", fmt.Sprintf("moderation target must be %s or %s", domain.StatusApproved, domain.StatusRejected))
	}
	if err := actor.Authorize(domain.ActionModerate, &domain.Listing{ID: id}); err != nil {
		uc.logger.Warn("Non-admin moderation attempt", zap.String("listing_id", id), zap.String("actor_id", actor.ID))
		return nil, err
	}

	l, prev, err := uc.transition(ctx, id, target)
	if err != nil {
		return nil, err
	}

	evt := domain.NewListingEvent(l, actor.ID, l.UpdatedAt)
	evt.PrevStatus = prev
	uc.publish(ctx, domain.SubjectListingModerated, evt)

	if uc.notifier != nil {
		if err := uc.notifier.NotifyModerated(ctx, l); err != nil {
			uc.logger.Warn("Failed to notify seller about moderation", zap.String("listing_id", id), zap.Error(err))
		}
	}

	uc.logger.Info("Listing moderated",
		zap.String("listing_id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(target)),
		zap.String("admin_id", actor.ID))
	return l, nil
}

// MarkSold closes an approved listing. Owner or admin.
func (uc *ListingUsecase) MarkSold(ctx context.Context, id string, actor domain.Actor) (*domain.Listing, error) {
	current, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr("get listing", id, err)
	}
	if err := actor.Authorize(domain.ActionMarkSold, current); err != nil {
		uc.logger.Warn("Forbidden mark sold attempt", zap.String("listing_id", id), zap.String("actor_id", actor.ID))
		return nil, err
	}

	prev := current.Status
	if err := current.Transition(domain.StatusSold, uc.now()); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateStatus(ctx, id, current.Status, current.UpdatedAt); err != nil {
		return nil, repoErr("update status", id, err)
	}
	uc.metrics.ListingTransitioned(string(current.Status))
	uc.invalidate(ctx, id)

	evt := domain.NewListingEvent(current, actor.ID, current.UpdatedAt)
	evt.PrevStatus = prev
	uc.publish(ctx, domain.SubjectListingSold, evt)
	uc.logger.Info("Listing marked as sold", zap.String("listing_id", id), zap.String("actor_id", actor.ID))
	return current, nil
}

// transition loads the listing straight from the repository, applies the
// status change and stores it.
func (uc *ListingUsecase) transition(ctx context.Context, id string, to domain.ListingStatus) (*domain.Listing, domain.ListingStatus, error) {
	l, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", repoErr("get listing", id, err)
	}
	prev := l.Status
	if err := l.Transition(to, uc.now()); err != nil {
		uc.logger.Info("Rejected status transition", zap.String("listing_id", id), zap.Error(err))
		return nil, "", err
	}
	if err := uc.repo.UpdateStatus(ctx, id, l.Status, l.UpdatedAt); err != nil {
		uc.logger.Error("Failed to store status", zap.String("listing_id", id), zap.Error(err))
		return nil, "", repoErr("update status", id, err)
	}
	uc.metrics.ListingTransitioned(string(to))
	uc.invalidate(ctx, id)
	return l, prev, nil
}

// Update edits the text, price or category of a pending listing.
func (uc *ListingUsecase) Update(ctx context.Context, id string, patch domain.Patch, actor domain.Actor) (*domain.Listing, error) {
	if patch.IsEmpty() {
		return nil, domain.NewValidationError("patch", "nothing to update")
	}
	l, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr("get listing", id, err)
	}
	if err := actor.Authorize(domain.ActionUpdate, l); err != nil {
		uc.logger.Warn("Forbidden update attempt", zap.String("listing_id", id), zap.String("actor_id", actor.ID))
		return nil, err
	}

	if patch.Title != nil {
		t := uc.sanitizer.Sanitize(*patch.Title)
		patch.Title = &t
	}
	if patch.Description != nil {
		d := uc.sanitizer.Sanitize(*patch.Description)
		patch.Description = &d
	}
	if err := l.Apply(patch, uc.now()); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, l); err != nil {
		return nil, repoErr("update listing", id, err)
	}
	uc.invalidate(ctx, id)
	uc.publish(ctx, domain.SubjectListingUpdated, domain.NewListingEvent(l, actor.ID, l.UpdatedAt))
	uc.logger.Info("Listing updated", zap.String("listing_id", id), zap.String("actor_id", actor.ID))
	return l, nil
}

// Delete removes a listing and its images. Owner or admin. Image deletion
// failures are logged and skipped; only a failure to delete the record
// itself is reported.
func (uc *ListingUsecase) Delete(ctx context.Context, id string, actor domain.Actor) error {
	l, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return repoErr("get listing", id, err)
	}
	if err := actor.Authorize(domain.ActionDelete, l); err != nil {
		uc.logger.Warn("Forbidden delete attempt", zap.String("listing_id", id), zap.String("actor_id", actor.ID))
		return err
	}

	failed := 0
	for _, ref := range l.Images {
		if err := uc.media.Delete(ctx, ref); err != nil {
			failed++
			uc.metrics.ImageDeleteFailed()
			uc.logger.Warn("Failed to delete listing image", zap.String("listing_id", id), zap.String("ref", ref), zap.Error(err))
		}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.logger.Error("Failed to delete listing record", zap.String("listing_id", id), zap.Error(err))
		return repoErr("delete listing", id, err)
	}
	uc.metrics.ListingDeleted()
	uc.invalidate(ctx, id)
	uc.publish(ctx, domain.SubjectListingDeleted, domain.NewListingEvent(l, actor.ID, uc.now()))
	uc.logger.Info("Listing deleted",
		zap.String("listing_id", id),
		zap.String("actor_id", actor.ID),
		zap.Int("images", len(l.Images)),
		zap.Int("image_delete_failures", failed))
	return nil
}

func (uc *ListingUsecase) invalidate(ctx context.Context, id string) {
	if err := uc.cache.Invalidate(ctx, id); err != nil {
		uc.logger.Warn("Failed to invalidate listing cache", zap.String("listing_id", id), zap.Error(err))
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, evt domain.ListingEvent) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, subject, evt); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.String("listing_id", evt.ListingID), zap.Error(err))
	}
}

func repoErr(op, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.NotFoundError{ListingID: id}
	}
	return &domain.StorageError{Op: op, Err: err}
}

type passThroughCache struct{}

func (passThroughCache) Listing(ctx context.Context, _ string, load func(context.Context) (*domain.Listing, error)) (*domain.Listing, error) {
	return load(ctx)
}

func (passThroughCache) Approved(ctx context.Context, load func(context.Context) ([]*domain.Listing, error)) ([]*domain.Listing, error) {
	return load(ctx)
}

func (passThroughCache) Invalidate(context.Context, ...string) error { return nil }

type trimSanitizer struct{}

func (trimSanitizer) Sanitize(s string) string { return strings.TrimSpace(s) }

type noopMetrics struct{}

func (noopMetrics) ListingCreated()            {}
func (noopMetrics) ListingTransitioned(string) {}
func (noopMetrics) ListingDeleted()            {}
func (noopMetrics) ImageUploaded(bool)         {}
func (noopMetrics) ImageDeleteFailed()         {}
