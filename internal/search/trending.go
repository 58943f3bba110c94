package search

import (
	"context"
	"fmt"
	"time"

	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

const (
	DefaultTrendingLimit int64 = 6
	TrendingWindow             = 7 * 24 * time.Hour
)

// TrendingPlan ranks cars by view events since the given time. Equal
// counts are ordered by car id.
func TrendingPlan(since time.Time, limit int64) *query.Plan {
	return query.NewPlan(query.Views).
		Filter(query.Since{Field: query.FieldCreatedAt, Time: since}).
		GroupCount(query.FieldCar).
		Sort(
			query.SortKey{Field: query.FieldCount, Dir: query.Desc},
			query.SortKey{Field: query.FieldID, Dir: query.Asc},
		).
		Limit(limit).
		Join(query.Cars)
}

// Trending returns the most viewed cars of the trailing window.
func (s *Service) Trending(ctx context.Context, limit int64) ([]model.TrendingCar, error) {
	if limit < 1 {
		limit = DefaultTrendingLimit
	}
	plan := TrendingPlan(s.now().Add(-TrendingWindow), limit)
	cars, err := s.views.Trending(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("search.Trending: %w", err)
	}
	if cars == nil {
		cars = []model.TrendingCar{}
	}
	return cars, nil
}
