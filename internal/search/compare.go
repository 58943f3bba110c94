package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/model"
)

const (
	MinCompare = 2
	MaxCompare = 4
)

// ParseIDs splits a comma-separated id list and keeps at most MaxCompare.
func ParseIDs(raw string) []string {
	ids := splitList(raw)
	if len(ids) > MaxCompare {
		ids = ids[:MaxCompare]
	}
	return ids
}

// ComparedCar is a car annotated with its review aggregate.
type ComparedCar struct {
	model.Car
	AvgRating   float64             `json:"avgRating"`
	ReviewCount int                 `json:"reviewCount"`
	Reviews     []model.ReviewBrief `json:"reviews"`
}

// Insights are derived facts across a comparison set. Ties go to the car
// requested first.
type Insights struct {
	Cheapest        string  `json:"cheapest"`
	MostExpensive   string  `json:"mostExpensive"`
	BestMileage     string  `json:"bestMileage"`
	HighestRated    *string `json:"highestRated"`
	PriceDifference int64   `json:"priceDifference"`
}

// Comparison is the response of Compare.
type Comparison struct {
	Cars     []ComparedCar `json:"cars"`
	Insights Insights      `json:"insights"`
}

// Compare fetches the requested cars and their reviews and derives
// insights. ids are used in the given order, truncated to MaxCompare.
func (s *Service) Compare(ctx context.Context, ids []string) (*Comparison, error) {
	if len(ids) > MaxCompare {
		ids = ids[:MaxCompare]
	}
	ids = dedupe(ids)
	if len(ids) < MinCompare {
		return nil, apperr.Validation("at least %d car ids are required for comparison", MinCompare)
	}

	var (
		cars      []model.Car
		summaries map[string]model.ReviewSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cars, err = s.cars.FindByIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		summaries, err = s.reviews.Summaries(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search.Compare: %w", err)
	}
	if len(cars) < MinCompare {
		return nil, apperr.Validation("at least %d of the requested cars must exist, found %d", MinCompare, len(cars))
	}

	orderCars(cars, ids)
	out := make([]ComparedCar, 0, len(cars))
	for _, c := range cars {
		cc := ComparedCar{Car: c, Reviews: []model.ReviewBrief{}}
		if sum, ok := summaries[c.ID]; ok && sum.Count > 0 {
			cc.AvgRating = roundOne(sum.Average)
			cc.ReviewCount = sum.Count
			if sum.Reviews != nil {
				cc.Reviews = sum.Reviews
			}
		}
		out = append(out, cc)
	}
	return &Comparison{Cars: out, Insights: deriveInsights(out)}, nil
}

func deriveInsights(cars []ComparedCar) Insights {
	var in Insights
	if len(cars) == 0 {
		return in
	}
	cheap, dear, miles := cars[0], cars[0], cars[0]
	for _, c := range cars[1:] {
		if c.Price < cheap.Price {
			cheap = c
		}
		if c.Price > dear.Price {
			dear = c
		}
		if c.Mileage > miles.Mileage {
			miles = c
		}
	}
	in.Cheapest = cheap.ID
	in.MostExpensive = dear.ID
	in.BestMileage = miles.ID
	in.PriceDifference = dear.Price - cheap.Price

	rated := make([]ComparedCar, 0, len(cars))
	for _, c := range cars {
		if c.ReviewCount > 0 {
			rated = append(rated, c)
		}
	}
	if len(rated) > 0 {
		sort.SliceStable(rated, func(i, j int) bool { return rated[i].AvgRating > rated[j].AvgRating })
		id := rated[0].ID
		in.HighestRated = &id
	}
	return in
}

// orderCars sorts cars into the order of ids.
func orderCars(cars []model.Car, ids []string) {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	sort.SliceStable(cars, func(i, j int) bool { return pos[cars[i].ID] < pos[cars[j].ID] })
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func roundOne(f float64) float64 {
	return math.Round(f*10) / 10
}
