package search

import (
	"context"
	"fmt"
	"math"

	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

const (
	DefaultSimilarLimit int64 = 4
	// priceBandPercent is the half-width of the price band around the source car.
	priceBandPercent int64 = 30
)

// SimilarBasis echoes the values a recommendation was built from.
type SimilarBasis struct {
	Price      int64       `json:"price"`
	Color      string      `json:"color"`
	Engine     string      `json:"engine"`
	PriceRange NumberRange `json:"priceRange"`
}

// SimilarResult is the response of Similar.
type SimilarResult struct {
	SimilarCars []model.Car  `json:"similarCars"`
	BasedOn     SimilarBasis `json:"basedOn"`
}

// PriceBand returns the inclusive ±30% band around price. The upper bound
// saturates at math.MaxInt64.
func PriceBand(price int64) (lo, hi int64) {
	// delta = ceil(price*30/100) without forming price*30.
	q, r := price/100, price%100
	delta := q*priceBandPercent + (r*priceBandPercent+99)/100
	lo = price - delta
	if price > math.MaxInt64-delta {
		return lo, math.MaxInt64
	}
	return lo, price + delta
}

// SimilarPredicate matches cars other than src that share its price band,
// color or engine. Any one dimension is enough.
func SimilarPredicate(src *model.Car) query.Predicate {
	lo, hi := PriceBand(src.Price)
	either := query.Or{query.Range{Field: query.FieldPrice, Min: &lo, Max: &hi}}
	if src.Color != "" {
		either = append(either, query.EqualFold{Field: query.FieldColor, Value: src.Color})
	}
	if src.Engine != "" {
		either = append(either, query.EqualFold{Field: query.FieldEngine, Value: src.Engine})
	}
	return query.And{query.NotID(src.ID), either}
}

// Similar returns up to limit cars resembling carID, oldest listing first.
func (s *Service) Similar(ctx context.Context, carID string, limit int64) (*SimilarResult, error) {
	if limit < 1 {
		limit = DefaultSimilarLimit
	}
	src, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("search.Similar: %w", err)
	}

	cars, err := s.cars.Find(ctx, query.Spec{
		Filter: SimilarPredicate(src),
		Sort: []query.SortKey{
			{Field: query.FieldCreatedAt, Dir: query.Asc},
			{Field: query.FieldID, Dir: query.Asc},
		},
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search.Similar: %w", err)
	}
	if cars == nil {
		cars = []model.Car{}
	}

	lo, hi := PriceBand(src.Price)
	return &SimilarResult{
		SimilarCars: cars,
		BasedOn: SimilarBasis{
			Price:      src.Price,
			Color:      src.Color,
			Engine:     src.Engine,
			PriceRange: NumberRange{Min: &lo, Max: &hi},
		},
	}, nil
}
