package search

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"car-listing-service/internal/query"
)

// Ranges reported when there are no cars at all.
const (
	FallbackPriceMin   int64 = 0
	FallbackPriceMax   int64 = 10_000_000
	FallbackMileageMin int64 = 0
	FallbackMileageMax int64 = 50
)

// Bounds is a closed numeric interval.
type Bounds struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// FilterOptions drive the client-side filter controls.
type FilterOptions struct {
	Colors       []string `json:"colors"`
	Engines      []string `json:"engines"`
	PriceRange   Bounds   `json:"priceRange"`
	MileageRange Bounds   `json:"mileageRange"`
}

// FilterOptions reports distinct facet values and numeric extents.
func (s *Service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	var (
		colors, engines []string
		price, mileage  query.Extent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		colors, err = s.cars.Distinct(gctx, query.FieldColor)
		return err
	})
	g.Go(func() (err error) {
		engines, err = s.cars.Distinct(gctx, query.FieldEngine)
		return err
	})
	g.Go(func() (err error) {
		price, err = s.cars.Extent(gctx, query.FieldPrice)
		return err
	})
	g.Go(func() (err error) {
		mileage, err = s.cars.Extent(gctx, query.FieldMileage)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search.FilterOptions: %w", err)
	}

	return &FilterOptions{
		Colors:       facet(colors),
		Engines:      facet(engines),
		PriceRange:   bounds(price, FallbackPriceMin, FallbackPriceMax),
		MileageRange: bounds(mileage, FallbackMileageMin, FallbackMileageMax),
	}, nil
}

// facet drops empty and repeated values and sorts the rest.
func facet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func bounds(e query.Extent, lo, hi int64) Bounds {
	if e.Empty {
		return Bounds{Min: lo, Max: hi}
	}
	return Bounds{Min: e.Min, Max: e.Max}
}
