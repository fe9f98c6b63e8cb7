package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/catalog"
	"marketplace-service/events"
	"marketplace-service/metrics"
	"marketplace-service/models"
	"marketplace-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SellerGate authorizes listing operations for a seller.
type SellerGate interface {
	RequireApproved(ctx context.Context, sellerID string) (*models.SellerRequest, error)
}

// CacheInvalidator drops cached catalog views after a listing changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type ModerationService struct {
	repo       repository.SellerProductRepo
	sellers    SellerGate
	categories *catalog.CategoryMapping
	cache      CacheInvalidator
	effects    sideEffects
	logger     *zap.Logger
	now        func() time.Time
}

func NewModerationService(
	repo repository.SellerProductRepo,
	sellers SellerGate,
	categories *catalog.CategoryMapping,
	cache CacheInvalidator,
	audit repository.AuditRepo,
	publisher events.Publisher,
	logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		repo:       repo,
		sellers:    sellers,
		categories: categories,
		cache:      cache,
		effects:    newSideEffects(audit, publisher, logger),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a new listing as pending for an approved seller.
func (s *ModerationService) Submit(ctx context.Context, sellerID string, in models.ListingInput) (*models.SellerProduct, error) {
	seller, err := s.sellers.RequireApproved(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if err := validateInput("Missing or invalid listing fields", in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.SellerProduct{
		SellerID:   seller.SellerCredentials.SellerID,
		SellerName: strings.TrimSpace(in.SellerName),
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.SellerName == "" {
		p.SellerName = seller.BusinessName
	}
	p.ApplyInput(in)
	if !ApplyDerivedFields(p, s.categories) {
		return nil, apperrors.Validation("Unknown category", "category")
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to store listing", zap.String("seller_id", sellerID), zap.Error(err))
		return nil, apperrors.Internal("Failed to submit product", err)
	}

	s.effects.publish(ctx, models.ModerationEvent{
		EventType:  models.EventListingSubmitted,
		EntityType: models.EntitySellerProduct,
		EntityID:   p.ID.Hex(),
		SellerID:   p.SellerID,
		Status:     p.Status,
		OccurredAt: now,
	})
	return p, nil
}

// Update edits a listing owned by sellerID. The listing returns to pending
// review and its previous review fields are cleared.
func (s *ModerationService) Update(ctx context.Context, productID, sellerID string, in models.ListingInput) (*models.SellerProduct, error) {
	existing, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Failed to load product", err)
	}
	if existing.SellerID != sellerID {
		return nil, apperrors.Forbidden("Product belongs to another seller")
	}
	if _, err := s.sellers.RequireApproved(ctx, sellerID); err != nil {
		return nil, err
	}
	if err := validateInput("Missing or invalid listing fields", in); err != nil {
		return nil, err
	}

	updated := *existing
	updated.ApplyInput(in)
	if name := strings.TrimSpace(in.SellerName); name != "" {
		updated.SellerName = name
	}
	if !ApplyDerivedFields(&updated, s.categories) {
		return nil, apperrors.Validation("Unknown category", "category")
	}
	updated.Status = models.StatusPending
	updated.AdminComments = ""
	updated.ReviewedBy = ""
	updated.ReviewedAt = nil
	updated.ApprovedAt = nil
	updated.UpdatedAt = s.now()

	previous, err := s.repo.ReplaceListing(ctx, &updated)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		s.logger.Error("Failed to update listing", zap.String("product_id", productID), zap.Error(err))
		return nil, apperrors.Internal("Failed to update product", err)
	}

	if previous != models.StatusPending {
		s.effects.recordTransition(ctx, models.EntitySellerProduct, productID,
			models.Transition{Action: models.ActionEdit, Reviewer: sellerID}, previous, models.StatusPending)
	}
	if previous == models.StatusApproved {
		s.invalidateCatalog(ctx, productID)
	}
	s.effects.publish(ctx, models.ModerationEvent{
		EventType:  models.EventListingUpdated,
		EntityType: models.EntitySellerProduct,
		EntityID:   productID,
		SellerID:   sellerID,
		Status:     models.StatusPending,
		FromStatus: previous,
		OccurredAt: updated.UpdatedAt,
	})
	return &updated, nil
}

// Review applies an admin approve or reject atomically.
func (s *ModerationService) Review(ctx context.Context, productID string, t models.Transition) (*models.SellerProduct, error) {
	if t.Action != models.ActionApprove && t.Action != models.ActionReject {
		return nil, apperrors.Validation("Unsupported action for products", "action")
	}
	if t.Action == models.ActionReject && strings.TrimSpace(t.Reason) == "" {
		t.Reason = models.DefaultRejectionReason
	}
	change := repository.StatusChange{
		From:     t.Action.AllowedFrom(),
		To:       t.Action.Target(),
		Reviewer: t.Reviewer,
		Reason:   t.Reason,
		At:       s.now(),
	}

	updated, from, err := s.repo.TransitionStatus(ctx, productID, change)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		return nil, apperrors.NotFound("Product not found")
	case errors.Is(err, repository.ErrStatusConflict):
		metrics.ModerationTransition(models.EntitySellerProduct, string(t.Action), "conflict")
		return nil, transitionConflict("Product", t.Action, from)
	default:
		s.logger.Error("Failed to review listing", zap.String("product_id", productID), zap.Error(err))
		return nil, apperrors.Internal("Failed to update product", err)
	}

	metrics.ModerationTransition(models.EntitySellerProduct, string(t.Action), "applied")
	s.effects.recordTransition(ctx, models.EntitySellerProduct, productID, t, from, updated.Status)
	s.invalidateCatalog(ctx, productID)
	s.effects.publish(ctx, models.ModerationEvent{
		EventType:  models.EventListingStatus,
		EntityType: models.EntitySellerProduct,
		EntityID:   productID,
		SellerID:   updated.SellerID,
		Status:     updated.Status,
		FromStatus: from,
		Reviewer:   t.Reviewer,
		Reason:     t.Reason,
		OccurredAt: change.At,
	})
	return updated, nil
}

func (s *ModerationService) ListBySeller(ctx context.Context, sellerID string) ([]models.SellerProduct, error) {
	return s.list(ctx, repository.ListingFilter{SellerID: sellerID})
}

// ListByStatus returns every listing when status is empty.
func (s *ModerationService) ListByStatus(ctx context.Context, status string) ([]models.SellerProduct, error) {
	st := models.ModerationStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.IsValid() {
		return nil, apperrors.Validation("Unknown status filter", "status")
	}
	return s.list(ctx, repository.ListingFilter{Status: st})
}

func (s *ModerationService) ListAll(ctx context.Context) ([]models.SellerProduct, error) {
	return s.list(ctx, repository.ListingFilter{})
}

func (s *ModerationService) list(ctx context.Context, f repository.ListingFilter) ([]models.SellerProduct, error) {
	products, err := s.repo.Find(ctx, f)
	if err != nil {
		return nil, apperrors.Internal("Failed to list products", err)
	}
	return products, nil
}

func (s *ModerationService) History(ctx context.Context, productID string) ([]models.ModerationAudit, error) {
	entries, err := s.effects.history(ctx, models.EntitySellerProduct, productID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load moderation history", err)
	}
	return entries, nil
}

// Approved returns approved listings, optionally restricted to one canonical
// category name. Repository errors are returned unchanged for the catalog.
func (s *ModerationService) Approved(ctx context.Context, category string) ([]models.SellerProduct, error) {
	return s.repo.Find(ctx, repository.ListingFilter{Status: models.StatusApproved, Category: category})
}

// ListingByID returns a listing in whatever moderation state it is in; the
// catalog projection carries the status so clients can tell.
func (s *ModerationService) ListingByID(ctx context.Context, id string) (*models.SellerProduct, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	return s.repo.FindByID(ctx, id)
}

func (s *ModerationService) invalidateCatalog(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("Failed to invalidate catalog cache", zap.String("product_id", productID), zap.Error(err))
	}
}
