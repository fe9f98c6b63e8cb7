package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/models"
	"marketplace-service/repository"

	"go.uber.org/zap"
)

type CartService struct {
	repo   repository.CartRepo
	logger *zap.Logger
	now    func() time.Time
}

func NewCartService(repo repository.CartRepo, logger *zap.Logger) *CartService {
	return &CartService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetCart never fails for a missing cart; it returns the empty view.
func (s *CartService) GetCart(ctx context.Context, userID string) (models.CartView, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return (*models.Cart)(nil).View(), nil
		}
		return models.CartView{}, apperrors.Internal("Failed to load cart", err)
	}
	return cart.View(), nil
}

// AddItem merges by product id: an existing line accumulates quantity,
// otherwise a new line is appended. An omitted quantity means 1.
func (s *CartService) AddItem(ctx context.Context, userID string, in models.AddToCartInput) (models.CartView, error) {
	productID := strings.TrimSpace(in.Ref())
	if productID == "" {
		return models.CartView{}, apperrors.Validation("Product ID is required", "_id")
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity <= 0 {
		return models.CartView{}, apperrors.Validation("Quantity must be positive", "quantity")
	}
	if in.Price < 0 {
		return models.CartView{}, apperrors.Validation("Price cannot be negative", "price")
	}

	now := s.now()
	cart, err := s.repo.FindByUserID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}, CreatedAt: now}
	case err != nil:
		return models.CartView{}, apperrors.Internal("Failed to load cart", err)
	}

	if i := cart.IndexOf(productID); i >= 0 {
		cart.Items[i].Quantity += quantity
		cart.Items[i].LastUpdatedAt = now
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:     productID,
			Name:          in.Name,
			Price:         in.Price,
			ImageURL:      in.ImageURL,
			Quantity:      quantity,
			AddedAt:       now,
			LastUpdatedAt: now,
		})
	}
	cart.UpdatedAt = now

	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return models.CartView{}, apperrors.Internal("Failed to add to cart", err)
	}
	s.logger.Debug("Cart item added", zap.String("user_id", userID), zap.String("product_id", productID))
	return cart.View(), nil
}

// RemoveItem deletes the whole line. There is no partial decrement.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (models.CartView, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.CartView{}, apperrors.NotFound("Cart not found")
		}
		return models.CartView{}, apperrors.Internal("Failed to load cart", err)
	}

	i := cart.IndexOf(productID)
	if i < 0 {
		return models.CartView{}, apperrors.NotFound("Item not found in cart")
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	cart.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return models.CartView{}, apperrors.Internal("Failed to remove from cart", err)
	}
	return cart.View(), nil
}
