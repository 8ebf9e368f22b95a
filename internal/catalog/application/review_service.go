package application

import (
	"context"
	"strings"
	"time"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// reviewService is the concrete implementation of ReviewService.
type reviewService struct {
	stores  StoreRepository
	reviews ReviewRepository
}

// NewReviewService creates the review command service.
func NewReviewService(stores StoreRepository, reviews ReviewRepository) ReviewService {
	return &reviewService{stores: stores, reviews: reviews}
}

// Add validates and persists a review against an existing store.
func (s *reviewService) Add(ctx context.Context, storeID, authorID string, rating float64, text string) (*domain.Review, error) {
	if err := domain.ValidateReview(rating, text); err != nil {
		return nil, err
	}
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		StoreID:  storeID,
		AuthorID: authorID,
		Rating:   rating,
		Text:     strings.TrimSpace(text),
		Created:  time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}
