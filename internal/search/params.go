package search

import (
	"net/url"
	"strconv"
	"strings"
)

// optionalInt parses a non-negative integer. Missing, malformed and
// negative values are all treated as absent.
func optionalInt(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// PositiveInt parses a positive integer, returning def for anything else.
func PositiveInt(raw string, def int64) int64 {
	n := optionalInt(raw)
	if n == nil || *n == 0 {
		return def
	}
	return *n
}

// splitList splits a comma-separated list, dropping blank tokens.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Params are the raw advanced-search inputs after lenient parsing.
type Params struct {
	Query      string
	MinPrice   *int64
	MaxPrice   *int64
	MinMileage *int64
	MaxMileage *int64
	Colors     []string
	Engines    []string
	SortBy     string
	SortOrder  string
	Page       int64
	Limit      int64
}

// ParseParams reads advanced-search parameters from a query string.
func ParseParams(v url.Values) Params {
	return Params{
		Query:      strings.TrimSpace(v.Get("query")),
		MinPrice:   optionalInt(v.Get("minPrice")),
		MaxPrice:   optionalInt(v.Get("maxPrice")),
		MinMileage: optionalInt(v.Get("minMileage")),
		MaxMileage: optionalInt(v.Get("maxMileage")),
		Colors:     splitList(v.Get("colors")),
		Engines:    splitList(v.Get("engines")),
		SortBy:     strings.TrimSpace(v.Get("sortBy")),
		SortOrder:  strings.ToLower(strings.TrimSpace(v.Get("sortOrder"))),
		Page:       PositiveInt(v.Get("page"), DefaultPage),
		Limit:      PositiveInt(v.Get("limit"), DefaultPageSize),
	}
}
