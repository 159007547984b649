package cve

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Sorting and pagination defaults. Invalid values in a ListFilters are
// silently corrected to these rather than rejected.
const (
	DefaultSortBy         = "published_date"
	DefaultSortOrder      = "desc"
	DefaultResultsPerPage = 10
	MaxResultsPerPage     = 100
)

// ListFilters represents the optional filters and paging of a listing
// request. Nil pointer fields mean "no filter".
type ListFilters struct {
	Year           *int
	MinScoreV2     *float64
	MinScoreV3     *float64
	LastNDays      *int
	CVEID          string
	SortBy         string
	SortOrder      string
	Page           int
	ResultsPerPage int
}

// Normalize applies the documented fallbacks: unknown sort keys and orders
// revert to published_date descending, page is clamped to >= 1 and the page
// size to 1..100.
func (f *ListFilters) Normalize() {
	switch f.SortBy {
	case "published_date", "last_modified":
	default:
		f.SortBy = DefaultSortBy
	}

	switch strings.ToLower(f.SortOrder) {
	case "asc", "desc":
		f.SortOrder = strings.ToLower(f.SortOrder)
	default:
		f.SortOrder = DefaultSortOrder
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.ResultsPerPage < 1 {
		f.ResultsPerPage = DefaultResultsPerPage
	}
	if f.ResultsPerPage > MaxResultsPerPage {
		f.ResultsPerPage = MaxResultsPerPage
	}
}

// Apply adds the filter conjunction to a query. The same predicate is shared
// by the count and the page fetch so total_records always matches the filter.
// All conditions are ANDed; in particular both score minimums must hold when
// both are given.
func (f *ListFilters) Apply(query *gorm.DB) *gorm.DB {
	if f.Year != nil {
		// Half-open calendar-year range keeps the published_date index usable.
		start := time.Date(*f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("published_date >= ? AND published_date < ?", start, start.AddDate(1, 0, 0))
	}
	if f.MinScoreV3 != nil {
		query = query.Where("base_score_v3 >= ?", *f.MinScoreV3)
	}
	if f.MinScoreV2 != nil {
		query = query.Where("base_score_v2 >= ?", *f.MinScoreV2)
	}
	if f.LastNDays != nil {
		// Time-of-query semantics: the cutoff moves with the clock.
		cutoff := time.Now().UTC().AddDate(0, 0, -*f.LastNDays)
		query = query.Where("last_modified >= ?", cutoff)
	}
	if f.CVEID != "" {
		query = query.Where("LOWER(cve_id) LIKE ?", "%"+strings.ToLower(f.CVEID)+"%")
	}
	return query
}

// OrderClause returns the ORDER BY expression for the normalized sort
// settings. Ties fall back to database-native ordering.
func (f *ListFilters) OrderClause() string {
	return f.SortBy + " " + strings.ToUpper(f.SortOrder)
}

// Offset returns the row offset of the requested page.
func (f *ListFilters) Offset() int {
	return (f.Page - 1) * f.ResultsPerPage
}
