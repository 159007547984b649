package cve

import (
	"github.com/cvedash/go-api/cvedash/postgres/models"
)

// Normalize maps a stored record to its Detail view. The raw document comes
// from an external feed and its schema is not enforced, so every branch is
// extracted independently: a wrong type or missing key anywhere yields an
// absent value for that branch only. Normalize never fails and never panics,
// and its output depends only on the record contents.
func Normalize(record *models.CVE) Detail {
	raw := map[string]interface{}(record.RawJSON)

	return Detail{
		CVEID:         record.CVEID,
		Description:   record.Description,
		PublishedDate: record.PublishedDate,
		LastModified:  record.LastModified,
		BaseScoreV2:   record.BaseScoreV2,
		BaseScoreV3:   record.BaseScoreV3,
		CVSSV2:        extractCVSSV2(raw),
		CVSSV3:        extractCVSSV3(raw),
		References:    extractReferences(raw),
		Products:      extractProducts(raw),
	}
}

// extractCVSSV2 reads the first element of metrics.cvssMetricV2. A present
// but sparse cvssData block still yields a sub-record; only a missing or
// empty metric list yields nil.
func extractCVSSV2(raw map[string]interface{}) *CVSSV2 {
	entry := firstMetric(raw, "cvssMetricV2")
	if entry == nil {
		return nil
	}

	data := asMap(entry["cvssData"])
	return &CVSSV2{
		BaseScore:             numField(data, "baseScore"),
		VectorString:          strField(data, "vectorString"),
		AccessVector:          strField(data, "accessVector"),
		AccessComplexity:      strField(data, "accessComplexity"),
		Authentication:        strField(data, "authentication"),
		ConfidentialityImpact: strField(data, "confidentialityImpact"),
		IntegrityImpact:       strField(data, "integrityImpact"),
		AvailabilityImpact:    strField(data, "availabilityImpact"),
		ExploitabilityScore:   numField(data, "exploitabilityScore"),
		ImpactScore:           numField(data, "impactScore"),
	}
}

func extractCVSSV3(raw map[string]interface{}) *CVSSV3 {
	entry := firstMetric(raw, "cvssMetricV3")
	if entry == nil {
		return nil
	}

	data := asMap(entry["cvssData"])
	return &CVSSV3{
		BaseScore:             numField(data, "baseScore"),
		VectorString:          strField(data, "vectorString"),
		AttackVector:          strField(data, "attackVector"),
		AttackComplexity:      strField(data, "attackComplexity"),
		PrivilegesRequired:    strField(data, "privilegesRequired"),
		UserInteraction:       strField(data, "userInteraction"),
		Scope:                 strField(data, "scope"),
		ConfidentialityImpact: strField(data, "confidentialityImpact"),
		IntegrityImpact:       strField(data, "integrityImpact"),
		AvailabilityImpact:    strField(data, "availabilityImpact"),
	}
}

// firstMetric returns the first map element of metrics.<key>, or nil when the
// metrics block, the list, or the element is missing or of the wrong type.
func firstMetric(raw map[string]interface{}, key string) map[string]interface{} {
	metrics := asMap(raw["metrics"])
	list := asList(metrics[key])
	if len(list) == 0 {
		return nil
	}
	return asMap(list[0])
}

// extractReferences reads references.reference_data. Entries missing url or
// name are still emitted; non-map entries are skipped.
func extractReferences(raw map[string]interface{}) []Reference {
	refs := []Reference{}
	for _, item := range asList(asMap(raw["references"])["reference_data"]) {
		entry := asMap(item)
		if entry == nil {
			continue
		}
		refs = append(refs, Reference{
			URL:  strField(entry, "url"),
			Name: strField(entry, "name"),
		})
	}
	return refs
}

// extractProducts walks configurations.nodes and one level of node children,
// collecting every cpe_match with a non-empty cpe23Uri. Matches without a
// criteria string are dropped.
func extractProducts(raw map[string]interface{}) []CPEProduct {
	products := []CPEProduct{}
	for _, item := range asList(asMap(raw["configurations"])["nodes"]) {
		node := asMap(item)
		if node == nil {
			continue
		}
		products = appendMatches(products, node)
		for _, childItem := range asList(node["children"]) {
			if child := asMap(childItem); child != nil {
				products = appendMatches(products, child)
			}
		}
	}
	return products
}

func appendMatches(products []CPEProduct, node map[string]interface{}) []CPEProduct {
	for _, item := range asList(node["cpe_match"]) {
		match := asMap(item)
		if match == nil {
			continue
		}
		criteria := strField(match, "cpe23Uri")
		if criteria == nil || *criteria == "" {
			continue
		}
		products = append(products, CPEProduct{
			Criteria:        *criteria,
			MatchCriteriaID: strField(match, "matchCriteriaId"),
			Vulnerable:      boolField(match, "vulnerable"),
		})
	}
	return products
}

// asMap returns v as a map, or nil when v is anything else. Lookups on a nil
// map are safe, so callers can chain these without nil checks.
func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asList(v interface{}) []interface{} {
	l, _ := v.([]interface{})
	return l
}

func strField(m map[string]interface{}, key string) *string {
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

// numField handles both float64 (decoded JSON) and int (documents built in
// code) representations.
func numField(m map[string]interface{}, key string) *float64 {
	switch n := m[key].(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}

func boolField(m map[string]interface{}, key string) bool {
	b, _ := m[key].(bool)
	return b
}
