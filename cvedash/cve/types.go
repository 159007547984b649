package cve

import (
	"time"
)

// Summary is one row of a listing page. Year is derived from the published
// timestamp so the frontend never has to parse dates.
type Summary struct {
	CVEID         string    `json:"cve_id"`
	Year          int       `json:"year"`
	PublishedDate time.Time `json:"published_date"`
	LastModified  time.Time `json:"last_modified"`
	BaseScoreV3   *float64  `json:"base_score_v3"`
	BaseScoreV2   *float64  `json:"base_score_v2"`
	Description   string    `json:"description"`
}

// Detail is the fully normalized view of one record. Every nested field is
// derived from the raw document; sub-records are nil when the corresponding
// block is absent from the document.
type Detail struct {
	CVEID         string       `json:"cve_id"`
	Description   string       `json:"description"`
	PublishedDate time.Time    `json:"published_date"`
	LastModified  time.Time    `json:"last_modified"`
	BaseScoreV2   *float64     `json:"base_score_v2"`
	BaseScoreV3   *float64     `json:"base_score_v3"`
	CVSSV2        *CVSSV2      `json:"cvss_v2"`
	CVSSV3        *CVSSV3      `json:"cvss_v3"`
	References    []Reference  `json:"references"`
	Products      []CPEProduct `json:"products"`
}

// CVSSV2 holds the v2 metric block. Each field is independently optional:
// a record missing one field still reports the others.
type CVSSV2 struct {
	BaseScore             *float64 `json:"baseScore"`
	VectorString          *string  `json:"vectorString"`
	AccessVector          *string  `json:"accessVector"`
	AccessComplexity      *string  `json:"accessComplexity"`
	Authentication        *string  `json:"authentication"`
	ConfidentialityImpact *string  `json:"confidentialityImpact"`
	IntegrityImpact       *string  `json:"integrityImpact"`
	AvailabilityImpact    *string  `json:"availabilityImpact"`
	ExploitabilityScore   *float64 `json:"exploitabilityScore"`
	ImpactScore           *float64 `json:"impactScore"`
}

// CVSSV3 holds the v3 metric block. v3 has no authentication field and no
// exploitability/impact sub-scores in this schema.
type CVSSV3 struct {
	BaseScore             *float64 `json:"baseScore"`
	VectorString          *string  `json:"vectorString"`
	AttackVector          *string  `json:"attackVector"`
	AttackComplexity      *string  `json:"attackComplexity"`
	PrivilegesRequired    *string  `json:"privilegesRequired"`
	UserInteraction       *string  `json:"userInteraction"`
	Scope                 *string  `json:"scope"`
	ConfidentialityImpact *string  `json:"confidentialityImpact"`
	IntegrityImpact       *string  `json:"integrityImpact"`
	AvailabilityImpact    *string  `json:"availabilityImpact"`
}

// Reference is one entry of the document's reference list.
type Reference struct {
	URL  *string `json:"url"`
	Name *string `json:"name"`
}

// CPEProduct is one affected-platform match from the configurations tree.
type CPEProduct struct {
	Criteria        string  `json:"criteria"`
	MatchCriteriaID *string `json:"matchCriteriaId"`
	Vulnerable      bool    `json:"vulnerable"`
}
