// File: cve.go
package models

import (
	"time"
)

// CVE represents a single vulnerability record as populated by the ingestion
// pipeline. The flat columns are denormalized from the raw document so the
// listing queries never have to touch the jsonb payload; cve_id is immutable
// once created.
type CVE struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	CVEID         string    `gorm:"column:cve_id;uniqueIndex;not null;size:32" json:"cve_id"`
	PublishedDate time.Time `gorm:"not null;index:idx_cves_published,sort:desc" json:"published_date"`
	LastModified  time.Time `gorm:"not null;index:idx_cves_modified,sort:desc" json:"last_modified"`
	BaseScoreV2   *float64  `gorm:"column:base_score_v2" json:"base_score_v2"`
	BaseScoreV3   *float64  `gorm:"column:base_score_v3" json:"base_score_v3"`
	Description   string    `gorm:"type:text" json:"description"`
	RawJSON       JSONB     `gorm:"column:raw_json;type:jsonb" json:"-"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// TableName specifies the table name for the CVE model
func (CVE) TableName() string {
	return "cves"
}
