package controllers

import (
	"context"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/middleware"
	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
)

// DefaultContextTimeout bounds a single handler's downstream calls.
const DefaultContextTimeout = 30 * time.Second

// SellerServiceAPI covers seller onboarding.
type SellerServiceAPI interface {
	Submit(ctx context.Context, in models.SellerApplicationInput) (*models.SubmitResult, error)
	Authenticate(ctx context.Context, username, password string) (*models.SellerProfile, error)
	GetStatus(ctx context.Context, sellerID string) (*models.SellerProfile, error)
	ListApplications(ctx context.Context) ([]models.SellerRequest, error)
	Transition(ctx context.Context, requestID string, t models.Transition) (*models.SellerRequest, error)
	History(ctx context.Context, requestID string) ([]models.ModerationAudit, error)
}

// ListingServiceAPI covers seller listings and their moderation.
type ListingServiceAPI interface {
	Submit(ctx context.Context, sellerID string, in models.ListingInput) (*models.SellerProduct, error)
	Update(ctx context.Context, productID, sellerID string, in models.ListingInput) (*models.SellerProduct, error)
	Review(ctx context.Context, productID string, t models.Transition) (*models.SellerProduct, error)
	ListBySeller(ctx context.Context, sellerID string) ([]models.SellerProduct, error)
	ListByStatus(ctx context.Context, status string) ([]models.SellerProduct, error)
	History(ctx context.Context, productID string) ([]models.ModerationAudit, error)
}

type CatalogServiceAPI interface {
	GetAll(ctx context.Context) (*models.CatalogResult, error)
	GetByCategory(ctx context.Context, key string) (*models.CatalogResult, error)
	GetByID(ctx context.Context, id string) (*models.CatalogItem, error)
}

type CartServiceAPI interface {
	GetCart(ctx context.Context, userID string) (models.CartView, error)
	AddItem(ctx context.Context, userID string, in models.AddToCartInput) (models.CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (models.CartView, error)
}

type StatsServiceAPI interface {
	Stats(ctx context.Context) (*models.Stats, error)
}

// SellerTokenIssuer signs the access token handed out on seller login.
type SellerTokenIssuer interface {
	Issue(sellerID, email string) (*middleware.SellerToken, error)
}

type ImageServiceAPI interface {
	PresignListingImage(ctx context.Context, sellerID, filename, contentType string) (*services.ImageUpload, error)
}

// bindJSON decodes the body, reporting malformed JSON as a validation error.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.Validation("Invalid request body"))
		return false
	}
	return true
}

func withTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultContextTimeout
	}
	return context.WithTimeout(c.Request.Context(), d)
}
