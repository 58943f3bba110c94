package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/model"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ReviewService contains business logic for reviews.
type ReviewService struct {
	reviewRepo  ReviewRepository
	listingRepo ListingRepository
	now         func() time.Time
}

// NewReviewService constructs a ReviewService with its required repositories.
func NewReviewService(rr ReviewRepository, lr ListingRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  rr,
		listingRepo: lr,
		now:         time.Now,
	}
}

// CreateReview checks that the car exists and stores a new review by userID.
func (s *ReviewService) CreateReview(ctx context.Context, carID, userID string, rating int, comment string) (*model.Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, apperr.Validation("rating must be between %d and %d", MinRating, MaxRating)
	}
	if err := s.ensureListing(ctx, carID); err != nil {
		return nil, fmt.Errorf("ReviewService.CreateReview: %w", err)
	}

	rev := &model.Review{
		CarID:     carID,
		UserID:    userID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: s.now().UTC(),
	}
	newID, err := s.reviewRepo.Insert(ctx, rev)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.CreateReview: insert: %w", err)
	}
	rev.ID = newID
	return rev, nil
}

// GetReviews returns the reviews of a car, newest first.
func (s *ReviewService) GetReviews(ctx context.Context, carID string) ([]model.Review, error) {
	if err := s.ensureListing(ctx, carID); err != nil {
		return nil, fmt.Errorf("ReviewService.GetReviews: %w", err)
	}
	reviews, err := s.reviewRepo.FindByListing(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.GetReviews: find by listing: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

func (s *ReviewService) ensureListing(ctx context.Context, carID string) error {
	exists, err := s.listingRepo.Exists(ctx, carID)
	if err != nil {
		return fmt.Errorf("checking listing exists: %w", err)
	}
	if !exists {
		return apperr.NotFound("car %s not found", carID)
	}
	return nil
}
