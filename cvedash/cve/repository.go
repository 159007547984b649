package cve

import (
	"errors"
	"fmt"

	"github.com/cvedash/go-api/cvedash/postgres"
	"github.com/cvedash/go-api/cvedash/postgres/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned by Get when no record matches the identifier.
// Callers map it to a 404; every other error is a store failure.
var ErrNotFound = errors.New("CVE not found")

// Repository provides the read operations over the cves table.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a Repository on the shared database connection.
func NewRepository() *Repository {
	return &Repository{db: postgres.GetDB()}
}

// NewRepositoryWithDB creates a Repository on an explicit gorm handle.
func NewRepositoryWithDB(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of summaries plus the total count of records
// matching the filter. Pages past the end return an empty slice, not an
// error.
func (r *Repository) List(filters ListFilters) ([]Summary, int, error) {
	if r.db == nil {
		return nil, 0, fmt.Errorf("database connection not available")
	}

	filters.Normalize()

	query := filters.Apply(r.db.Model(&models.CVE{}))

	// Count on the same predicate before pagination.
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count CVEs: %w", err)
	}

	var records []models.CVE
	err := query.
		Order(filters.OrderClause()).
		Limit(filters.ResultsPerPage).
		Offset(filters.Offset()).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query CVEs: %w", err)
	}

	summaries := make([]Summary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, Summary{
			CVEID:         rec.CVEID,
			Year:          rec.PublishedDate.Year(),
			PublishedDate: rec.PublishedDate,
			LastModified:  rec.LastModified,
			BaseScoreV3:   rec.BaseScoreV3,
			BaseScoreV2:   rec.BaseScoreV2,
			Description:   rec.Description,
		})
	}

	return summaries, int(total), nil
}

// Get fetches one record by its exact identifier and normalizes it.
func (r *Repository) Get(cveID string) (*Detail, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection not available")
	}

	var record models.CVE
	err := r.db.Where("cve_id = ?", cveID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get CVE %s: %w", cveID, err)
	}

	detail := Normalize(&record)
	return &detail, nil
}
