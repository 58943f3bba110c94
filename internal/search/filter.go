package search

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

const (
	DefaultPage     int64 = 1
	DefaultPageSize int64 = 10
	MaxPageSize     int64 = 100
)

// sortFields maps accepted sortBy values to fields.
var sortFields = map[string]query.Field{
	"price":        query.FieldPrice,
	"mileage":      query.FieldMileage,
	"createdAt":    query.FieldCreatedAt,
	"creationTime": query.FieldCreatedAt,
}

var defaultSort = query.SortKey{Field: query.FieldCreatedAt, Dir: query.Desc}

// textFields are searched by the free-text query.
var textFields = []query.Field{
	query.FieldCompany,
	query.FieldDescription,
	query.FieldEngine,
	query.FieldColor,
}

// Compiled is a normalized advanced search.
type Compiled struct {
	Spec    query.Spec
	Page    int64
	Limit   int64
	Applied AppliedFilters
}

// AppliedFilters echoes the normalized inputs back to the client.
type AppliedFilters struct {
	Query        string      `json:"query,omitempty"`
	PriceRange   NumberRange `json:"priceRange"`
	MileageRange NumberRange `json:"mileageRange"`
	Colors       []string    `json:"colors"`
	Engines      []string    `json:"engines"`
	SortBy       string      `json:"sortBy"`
	SortOrder    string      `json:"sortOrder"`
}

// NumberRange is an optional inclusive range.
type NumberRange struct {
	Min *int64 `json:"min"`
	Max *int64 `json:"max"`
}

// Compile turns parsed parameters into a predicate, sort and page window.
func Compile(p Params) Compiled {
	var terms query.And
	if p.Query != "" {
		or := make(query.Or, 0, len(textFields))
		for _, f := range textFields {
			or = append(or, query.Contains{Field: f, Value: p.Query})
		}
		terms = append(terms, or)
	}
	if p.MinPrice != nil || p.MaxPrice != nil {
		terms = append(terms, query.Range{Field: query.FieldPrice, Min: p.MinPrice, Max: p.MaxPrice})
	}
	if p.MinMileage != nil || p.MaxMileage != nil {
		terms = append(terms, query.Range{Field: query.FieldMileage, Min: p.MinMileage, Max: p.MaxMileage})
	}
	if len(p.Colors) > 0 {
		terms = append(terms, query.InFold{Field: query.FieldColor, Values: p.Colors})
	}
	if len(p.Engines) > 0 {
		terms = append(terms, query.InFold{Field: query.FieldEngine, Values: p.Engines})
	}

	key, sortBy := resolveSort(p.SortBy, p.SortOrder)

	page, limit := p.Page, p.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	colors, engines := p.Colors, p.Engines
	if colors == nil {
		colors = []string{}
	}
	if engines == nil {
		engines = []string{}
	}

	// id breaks ties so pages never overlap.
	return Compiled{
		Spec: query.Spec{
			Filter: query.Conj(terms...),
			Sort:   []query.SortKey{key, {Field: query.FieldID, Dir: query.Asc}},
			Skip:   skipFor(page, limit),
			Limit:  limit,
		},
		Page:  page,
		Limit: limit,
		Applied: AppliedFilters{
			Query:        p.Query,
			PriceRange:   NumberRange{Min: p.MinPrice, Max: p.MaxPrice},
			MileageRange: NumberRange{Min: p.MinMileage, Max: p.MaxMileage},
			Colors:       colors,
			Engines:      engines,
			SortBy:       sortBy,
			SortOrder:    key.Dir.String(),
		},
	}
}

// skipFor returns (page-1)*limit, saturating at math.MaxInt64 so a page
// past the end of any result set stays empty instead of wrapping around.
func skipFor(page, limit int64) int64 {
	if page-1 > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return (page - 1) * limit
}

// resolveSort falls back to newest first for any unknown sortBy,
// ignoring sortOrder in that case.
func resolveSort(sortBy, order string) (query.SortKey, string) {
	f, ok := sortFields[sortBy]
	if !ok {
		return defaultSort, "createdAt"
	}
	dir := query.Desc
	if order == "asc" {
		dir = query.Asc
	}
	if f == query.FieldCreatedAt {
		sortBy = "createdAt"
	}
	return query.SortKey{Field: f, Dir: dir}, sortBy
}

// Pagination describes the window returned by an advanced search.
type Pagination struct {
	Page        int64 `json:"page"`
	Limit       int64 `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// SearchResult is the response of an advanced search.
type SearchResult struct {
	Cars       []model.Car    `json:"cars"`
	Pagination Pagination     `json:"pagination"`
	Filters    AppliedFilters `json:"filters"`
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int64) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Advanced runs a compiled search. The page and the total count are
// fetched concurrently.
func (s *Service) Advanced(ctx context.Context, p Params) (*SearchResult, error) {
	c := Compile(p)

	var (
		cars  []model.Car
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cars, err = s.cars.Find(gctx, c.Spec)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.cars.Count(gctx, c.Spec.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search.Advanced: %w", err)
	}
	if cars == nil {
		cars = []model.Car{}
	}

	pages := TotalPages(total, c.Limit)
	return &SearchResult{
		Cars: cars,
		Pagination: Pagination{
			Page:        c.Page,
			Limit:       c.Limit,
			Total:       total,
			TotalPages:  pages,
			HasNextPage: c.Page < pages,
			HasPrevPage: c.Page > 1,
		},
		Filters: c.Applied,
	}, nil
}
