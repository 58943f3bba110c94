// Package search implements the read-side features of the marketplace:
// advanced filtering, comparison, similar-car recommendation, trending
// cars and filter facets. Every operation is read-only.
package search

import (
	"context"
	"time"

	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

// ListingStore reads cars.
type ListingStore interface {
	Find(ctx context.Context, spec query.Spec) ([]model.Car, error)
	Count(ctx context.Context, filter query.Predicate) (int64, error)
	FindByID(ctx context.Context, id string) (*model.Car, error)
	// FindByIDs returns the cars that exist, with Owner populated.
	FindByIDs(ctx context.Context, ids []string) ([]model.Car, error)
	Distinct(ctx context.Context, field query.Field) ([]string, error)
	Extent(ctx context.Context, field query.Field) (query.Extent, error)
}

// ReviewStore aggregates reviews per car.
type ReviewStore interface {
	// Summaries returns one entry per car that has at least one review.
	Summaries(ctx context.Context, carIDs []string) (map[string]model.ReviewSummary, error)
}

// ViewStore runs aggregation plans over the view-event log.
type ViewStore interface {
	Trending(ctx context.Context, plan *query.Plan) ([]model.TrendingCar, error)
}

// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	cars    ListingStore
	reviews ReviewStore
	views   ViewStore
	now     func() time.Time
}

func NewService(cars ListingStore, reviews ReviewStore, views ViewStore) *Service {
	return &Service{
		cars:    cars,
		reviews: reviews,
		views:   views,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for sliding windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
