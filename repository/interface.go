package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-service/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrInvalidID      = errors.New("invalid id")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrStatusConflict = errors.New("status does not allow this transition")
)

// StatusChange is applied atomically: it succeeds only while the stored
// status is one of From.
type StatusChange struct {
	From     []models.ModerationStatus
	To       models.ModerationStatus
	Reviewer string
	Reason   string
	At       time.Time
}

// ListingFilter narrows seller listing queries. Empty fields match everything.
type ListingFilter struct {
	SellerID string
	Status   models.ModerationStatus
	Category string
}

// The interfaces below use plain Go types (no mongo-driver types) so adapters
// can be swapped and services tested with in-memory fakes.

type SellerRequestRepo interface {
	// Create returns ErrDuplicateKey when a credential collides with an existing one.
	Create(ctx context.Context, req *models.SellerRequest) error
	FindByID(ctx context.Context, id string) (*models.SellerRequest, error)
	FindByUsername(ctx context.Context, username string) (*models.SellerRequest, error)
	FindBySellerID(ctx context.Context, sellerID string) (*models.SellerRequest, error)
	FindAll(ctx context.Context) ([]models.SellerRequest, error)
	// TransitionStatus returns the updated document and the status it held
	// before the change. When the stored status is not in change.From it
	// returns the current document with ErrStatusConflict.
	TransitionStatus(ctx context.Context, id string, change StatusChange) (*models.SellerRequest, models.ModerationStatus, error)
	CountByStatus(ctx context.Context) (map[models.ModerationStatus]int64, error)
	EnsureIndexes(ctx context.Context) error
}

type SellerProductRepo interface {
	Create(ctx context.Context, p *models.SellerProduct) error
	FindByID(ctx context.Context, id string) (*models.SellerProduct, error)
	Find(ctx context.Context, filter ListingFilter) ([]models.SellerProduct, error)
	// ReplaceListing overwrites the seller-editable and derived fields of the
	// listing owned by p.SellerID, resetting it to pending review. It returns
	// the status the listing had immediately before the write.
	ReplaceListing(ctx context.Context, p *models.SellerProduct) (models.ModerationStatus, error)
	TransitionStatus(ctx context.Context, id string, change StatusChange) (*models.SellerProduct, models.ModerationStatus, error)
	CountByStatus(ctx context.Context) (map[models.ModerationStatus]int64, error)
	EnsureIndexes(ctx context.Context) error
}

// ProductRepo reads platform-owned products.
type ProductRepo interface {
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByCategoryID(ctx context.Context, categoryID string) ([]models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

type CartRepo interface {
	FindByUserID(ctx context.Context, userID string) (*models.Cart, error)
	// Save upserts the cart keyed by its user id.
	Save(ctx context.Context, cart *models.Cart) error
	EnsureIndexes(ctx context.Context) error
}

type AuditRepo interface {
	Append(ctx context.Context, entry *models.ModerationAudit) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.ModerationAudit, error)
}
