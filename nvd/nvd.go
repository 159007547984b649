package nvd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============== Types ===============

// Top-level response from the NVD 2.0 REST API
type NVDResponse struct {
	ResultsPerPage  int          `json:"resultsPerPage"`
	StartIndex      int          `json:"startIndex"`
	TotalResults    int          `json:"totalResults"`
	Format          string       `json:"format"`
	Version         string       `json:"version"`
	Timestamp       string       `json:"timestamp"`
	Vulnerabilities []DefCVEItem `json:"vulnerabilities"`
}

// An item in the "vulnerabilities" array
type DefCVEItem struct {
	CVE CveItem `json:"cve"`
}

// CveItem carries the subset of the NVD CVE schema the dashboard persists:
// identity, timestamps, descriptions, metrics, references, configurations.
type CveItem struct {
	ID               string       `json:"id"`
	SourceIdentifier string       `json:"sourceIdentifier"`
	VulnStatus       string       `json:"vulnStatus"`
	Published        string       `json:"published"`
	LastModified     string       `json:"lastModified"`
	Descriptions     []LangString `json:"descriptions"`
	References       []Reference  `json:"references"`
	Metrics          Metrics      `json:"metrics,omitempty"`
	Configurations   []Config     `json:"configurations,omitempty"`
}

// "descriptions" array items
type LangString struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// "references" array items
type Reference struct {
	URL    string   `json:"url"`
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Container for multiple CVSS versions
type Metrics struct {
	CvssMetricV31 []CvssV3 `json:"cvssMetricV31,omitempty"`
	CvssMetricV30 []CvssV3 `json:"cvssMetricV30,omitempty"`
	CvssMetricV2  []CvssV2 `json:"cvssMetricV2,omitempty"`
}

// CVSS v3.x metric entry (v3.0 and v3.1 share the same shape here)
type CvssV3 struct {
	Source              string     `json:"source"`
	Type                string     `json:"type"`
	CvssData            CvssDataV3 `json:"cvssData"`
	ExploitabilityScore float64    `json:"exploitabilityScore,omitempty"`
	ImpactScore         float64    `json:"impactScore,omitempty"`
}

// CVSS v2.0 metric entry
type CvssV2 struct {
	Source              string     `json:"source"`
	Type                string     `json:"type"`
	CvssData            CvssDataV2 `json:"cvssData"`
	BaseSeverity        *string    `json:"baseSeverity,omitempty"`
	ExploitabilityScore *float64   `json:"exploitabilityScore,omitempty"`
	ImpactScore         *float64   `json:"impactScore,omitempty"`
}

// CVSS v3.x data
type CvssDataV3 struct {
	Version               string  `json:"version"`
	VectorString          string  `json:"vectorString"`
	BaseScore             float64 `json:"baseScore"`
	BaseSeverity          string  `json:"baseSeverity"`
	AttackVector          string  `json:"attackVector"`
	AttackComplexity      string  `json:"attackComplexity"`
	PrivilegesRequired    string  `json:"privilegesRequired"`
	UserInteraction       string  `json:"userInteraction"`
	Scope                 string  `json:"scope"`
	ConfidentialityImpact string  `json:"confidentialityImpact"`
	IntegrityImpact       string  `json:"integrityImpact"`
	AvailabilityImpact    string  `json:"availabilityImpact"`
}

// CVSS v2.0 data
type CvssDataV2 struct {
	Version               string  `json:"version"`
	VectorString          string  `json:"vectorString"`
	BaseScore             float64 `json:"baseScore"`
	AccessVector          string  `json:"accessVector"`
	AccessComplexity      string  `json:"accessComplexity"`
	Authentication        string  `json:"authentication"`
	ConfidentialityImpact string  `json:"confidentialityImpact"`
	IntegrityImpact       string  `json:"integrityImpact"`
	AvailabilityImpact    string  `json:"availabilityImpact"`
}

// "configurations" array items
type Config struct {
	Operator string `json:"operator"`
	Negate   bool   `json:"negate,omitempty"`
	Nodes    []Node `json:"nodes"`
}

// Each node in "configurations"
type Node struct {
	Operator string     `json:"operator"`
	Negate   bool       `json:"negate,omitempty"`
	CpeMatch []CpeMatch `json:"cpeMatch,omitempty"`
}

// An item in "cpeMatch"
type CpeMatch struct {
	Vulnerable            bool   `json:"vulnerable"`
	Criteria              string `json:"criteria"`
	MatchCriteriaID       string `json:"matchCriteriaId"`
	VersionStartExcluding string `json:"versionStartExcluding,omitempty"`
	VersionStartIncluding string `json:"versionStartIncluding,omitempty"`
	VersionEndExcluding   string `json:"versionEndExcluding,omitempty"`
	VersionEndIncluding   string `json:"versionEndIncluding,omitempty"`
}

// =============== Column helpers ===============

// nvdTimeLayouts covers the timestamp shapes the feed has been seen to emit.
var nvdTimeLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseTime parses an NVD feed timestamp.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range nvdTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized NVD timestamp %q", s)
}

// EnglishDescription returns the first English description, falling back to
// the first description of any language.
func (c CveItem) EnglishDescription() string {
	for _, d := range c.Descriptions {
		if d.Lang == "en" {
			return d.Value
		}
	}
	if len(c.Descriptions) > 0 {
		return c.Descriptions[0].Value
	}
	return ""
}

// BaseScoreV3 returns the primary v3 base score, preferring v3.1 over v3.0.
// Nil when the record has no v3 metric.
func (c CveItem) BaseScoreV3() *float64 {
	if len(c.Metrics.CvssMetricV31) > 0 {
		score := c.Metrics.CvssMetricV31[0].CvssData.BaseScore
		return &score
	}
	if len(c.Metrics.CvssMetricV30) > 0 {
		score := c.Metrics.CvssMetricV30[0].CvssData.BaseScore
		return &score
	}
	return nil
}

// BaseScoreV2 returns the primary v2 base score, nil when absent.
func (c CveItem) BaseScoreV2() *float64 {
	if len(c.Metrics.CvssMetricV2) > 0 {
		score := c.Metrics.CvssMetricV2[0].CvssData.BaseScore
		return &score
	}
	return nil
}

// =============== Client ===============

const apiBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

// GetCVE fetches one CVE record from the NVD REST API.
func GetCVE(vid string) (CveItem, error) {
	var baseCve CveItem
	url := fmt.Sprintf("%s?cveId=%s", apiBaseURL, vid)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return baseCve, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return baseCve, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return baseCve, fmt.Errorf("received status code %d from NVD API", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return baseCve, fmt.Errorf("failed to read response body: %w", err)
	}

	var nvdResp NVDResponse
	if err := json.Unmarshal(bodyBytes, &nvdResp); err != nil {
		return baseCve, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	if len(nvdResp.Vulnerabilities) == 0 {
		return CveItem{}, nil
	}
	return nvdResp.Vulnerabilities[0].CVE, nil
}
