package services

import (
	"context"

	"marketplace-service/apperrors"
	"marketplace-service/models"
	"marketplace-service/repository"
)

type StatsService struct {
	requests repository.SellerRequestRepo
	listings repository.SellerProductRepo
}

func NewStatsService(requests repository.SellerRequestRepo, listings repository.SellerProductRepo) *StatsService {
	return &StatsService{requests: requests, listings: listings}
}

// Stats reports plain counts per status for the admin dashboard.
func (s *StatsService) Stats(ctx context.Context) (*models.Stats, error) {
	apps, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load stats", err)
	}
	listings, err := s.listings.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load stats", err)
	}

	stats := &models.Stats{
		Applications: zeroFilled(apps),
		Listings:     zeroFilled(listings),
	}
	stats.TotalSellers = stats.Applications[models.StatusApproved]
	stats.Pending = stats.Applications[models.StatusPending] +
		stats.Applications[models.StatusUnderReview] +
		stats.Listings[models.StatusPending]
	return stats, nil
}

func zeroFilled(in map[models.ModerationStatus]int64) map[models.ModerationStatus]int64 {
	out := map[models.ModerationStatus]int64{
		models.StatusPending:     0,
		models.StatusUnderReview: 0,
		models.StatusApproved:    0,
		models.StatusRejected:    0,
	}
	for k, v := range in {
		out[k] = v
	}
	return out
}
