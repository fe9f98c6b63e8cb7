package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/events"
	"marketplace-service/metrics"
	"marketplace-service/models"
	"marketplace-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CredentialGenerator issues seller login identifiers.
type CredentialGenerator interface {
	Generate(businessName string) (models.IssuedCredentials, error)
}

// SellerOptions tunes credential retry behaviour.
type SellerOptions struct {
	MaxCredentialAttempts int
	RetryBackoff          time.Duration
	BcryptCost            int
}

func DefaultSellerOptions() SellerOptions {
	return SellerOptions{
		MaxCredentialAttempts: 3,
		RetryBackoff:          5 * time.Millisecond,
		BcryptCost:            bcrypt.DefaultCost,
	}
}

type SellerService struct {
	repo    repository.SellerRequestRepo
	issuer  CredentialGenerator
	effects sideEffects
	opts    SellerOptions
	logger  *zap.Logger
	now     func() time.Time
	// compared against when the username is unknown so both paths cost a bcrypt round
	dummyHash []byte
}

func NewSellerService(
	repo repository.SellerRequestRepo,
	issuer CredentialGenerator,
	audit repository.AuditRepo,
	publisher events.Publisher,
	opts SellerOptions,
	logger *zap.Logger,
) *SellerService {
	if opts.MaxCredentialAttempts < 1 {
		opts.MaxCredentialAttempts = 1
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("marketplace-dummy-password"), opts.BcryptCost)
	return &SellerService{
		repo:      repo,
		issuer:    issuer,
		effects:   newSideEffects(audit, publisher, logger),
		opts:      opts,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: dummy,
	}
}

// Submit validates an application, issues credentials and stores it as
// pending. Credential collisions are retried with fresh credentials.
func (s *SellerService) Submit(ctx context.Context, in models.SellerApplicationInput) (*models.SubmitResult, error) {
	if err := validateInput("Missing or invalid application fields", in); err != nil {
		return nil, err
	}

	now := s.now()
	req := &models.SellerRequest{
		BusinessName:      strings.TrimSpace(in.BusinessName),
		OwnerName:         strings.TrimSpace(in.OwnerName),
		Email:             strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:             strings.TrimSpace(in.Phone),
		BusinessType:      in.BusinessType,
		Address:           in.Address,
		GST:               strings.ToUpper(strings.TrimSpace(in.GST)),
		PAN:               strings.ToUpper(strings.TrimSpace(in.PAN)),
		ProductCategories: []string(in.ProductCategories),
		Description:       in.Description,
		Website:           in.Website,
		Agree:             in.Agree,
		Status:            models.StatusPending,
		CreatedAt:         now,
		LastStatusUpdate:  now,
	}

	var creds models.IssuedCredentials
	for attempt := 1; ; attempt++ {
		var err error
		creds, err = s.issuer.Generate(req.BusinessName)
		if err != nil {
			return nil, apperrors.Internal("Failed to generate credentials", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.opts.BcryptCost)
		if err != nil {
			return nil, apperrors.Internal("Failed to secure credentials", err)
		}
		req.ID = primitive.NilObjectID
		req.SellerCredentials = models.SellerCredentials{
			Username:     creds.Username,
			PasswordHash: string(hash),
			SellerID:     creds.SellerID,
		}

		err = s.repo.Create(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			s.logger.Error("Failed to store seller application", zap.Error(err))
			return nil, apperrors.Internal("Failed to submit seller application", err)
		}
		if attempt >= s.opts.MaxCredentialAttempts {
			s.logger.Error("Credential collisions exhausted retries", zap.Int("attempts", attempt))
			return nil, apperrors.Internal("Failed to issue unique credentials", err)
		}
		metrics.CredentialCollision()
		s.logger.Warn("Credential collision, regenerating", zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return nil, apperrors.Internal("Failed to submit seller application", ctx.Err())
		case <-time.After(s.opts.RetryBackoff * time.Duration(attempt)):
		}
	}

	s.logger.Info("Seller application submitted",
		zap.String("request_id", req.ID.Hex()),
		zap.String("seller_id", creds.SellerID),
	)
	s.effects.publish(ctx, models.ModerationEvent{
		EventType:  models.EventApplicationSubmitted,
		EntityType: models.EntitySellerRequest,
		EntityID:   req.ID.Hex(),
		SellerID:   creds.SellerID,
		Status:     models.StatusPending,
		OccurredAt: now,
	})

	return &models.SubmitResult{
		RequestID:   req.ID.Hex(),
		SellerID:    creds.SellerID,
		Credentials: creds,
		Status:      models.StatusPending,
	}, nil
}

// Authenticate checks a username and password. Every failure, including an
// unknown username, returns the same auth error.
func (s *SellerService) Authenticate(ctx context.Context, username, password string) (*models.SellerProfile, error) {
	if username == "" || password == "" {
		return nil, apperrors.Validation("Username and password are required", "username", "password")
	}

	req, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal("Failed to authenticate seller", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(req.SellerCredentials.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	profile := req.Profile()
	return &profile, nil
}

func (s *SellerService) GetStatus(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	req, err := s.repo.FindBySellerID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Seller not found")
		}
		return nil, apperrors.Internal("Failed to load seller status", err)
	}
	profile := req.Profile()
	return &profile, nil
}

// ListApplications returns all applications, newest first.
func (s *SellerService) ListApplications(ctx context.Context) ([]models.SellerRequest, error) {
	reqs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list seller requests", err)
	}
	return reqs, nil
}

// Transition applies an admin decision atomically.
func (s *SellerService) Transition(ctx context.Context, requestID string, t models.Transition) (*models.SellerRequest, error) {
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

	updated, from, err := s.repo.TransitionStatus(ctx, requestID, change)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		return nil, apperrors.NotFound("Seller request not found")
	case errors.Is(err, repository.ErrStatusConflict):
		metrics.ModerationTransition(models.EntitySellerRequest, string(t.Action), "conflict")
		return nil, transitionConflict("Request", t.Action, from)
	default:
		s.logger.Error("Failed to transition seller request", zap.String("request_id", requestID), zap.Error(err))
		return nil, apperrors.Internal("Failed to update seller request", err)
	}

	metrics.ModerationTransition(models.EntitySellerRequest, string(t.Action), "applied")
	s.effects.recordTransition(ctx, models.EntitySellerRequest, requestID, t, from, updated.Status)
	s.effects.publish(ctx, models.ModerationEvent{
		EventType:  models.EventApplicationStatus,
		EntityType: models.EntitySellerRequest,
		EntityID:   requestID,
		SellerID:   updated.SellerCredentials.SellerID,
		Status:     updated.Status,
		FromStatus: from,
		Reviewer:   t.Reviewer,
		Reason:     t.Reason,
		OccurredAt: change.At,
	})
	s.logger.Info("Seller request transitioned",
		zap.String("request_id", requestID),
		zap.String("action", string(t.Action)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// RequireApproved is the gate for listing operations.
func (s *SellerService) RequireApproved(ctx context.Context, sellerID string) (*models.SellerRequest, error) {
	if sellerID == "" {
		return nil, apperrors.Forbidden("Seller not approved")
	}
	req, err := s.repo.FindBySellerID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Forbidden("Seller not approved")
		}
		return nil, apperrors.Internal("Failed to verify seller", err)
	}
	if req.Status != models.StatusApproved {
		return nil, apperrors.Forbidden("Seller not approved")
	}
	return req, nil
}

func (s *SellerService) History(ctx context.Context, requestID string) ([]models.ModerationAudit, error) {
	entries, err := s.effects.history(ctx, models.EntitySellerRequest, requestID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load moderation history", err)
	}
	return entries, nil
}

func transitionConflict(noun string, action models.ModerationAction, current models.ModerationStatus) error {
	if current == action.Target() {
		return apperrors.Conflict(noun + " already " + string(current))
	}
	return apperrors.Conflict(noun + " is " + string(current) + " and cannot be " + pastTense(action))
}

func pastTense(a models.ModerationAction) string {
	switch a {
	case models.ActionApprove:
		return "approved"
	case models.ActionReject:
		return "rejected"
	}
	return "moved to review"
}
