package ingest

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/cvedash/go-api/cvedash/cve"
	"github.com/cvedash/go-api/cvedash/postgres/models"
	"github.com/cvedash/go-api/nvd"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sampleItemJSON = `{
	"id": "CVE-2023-44487",
	"sourceIdentifier": "secalert@redhat.com",
	"vulnStatus": "Analyzed",
	"published": "2023-10-10T14:15:10.883",
	"lastModified": "2023-11-01T20:31:33.863",
	"descriptions": [
		{"lang": "es", "value": "descripción en español"},
		{"lang": "en", "value": "The HTTP/2 protocol allows rapid stream resets."}
	],
	"metrics": {
		"cvssMetricV31": [
			{"source": "nvd@nist.gov", "type": "Primary",
			 "cvssData": {"version": "3.1", "baseScore": 7.5, "attackVector": "NETWORK", "attackComplexity": "LOW"}}
		],
		"cvssMetricV2": [
			{"source": "nvd@nist.gov", "type": "Primary",
			 "cvssData": {"version": "2.0", "baseScore": 5.0, "accessVector": "NETWORK"},
			 "exploitabilityScore": 10.0, "impactScore": 2.9}
		]
	},
	"references": [
		{"url": "https://example.com/advisory", "source": "secalert@redhat.com"}
	],
	"configurations": [
		{"nodes": [
			{"operator": "OR", "cpeMatch": [
				{"vulnerable": true, "criteria": "cpe:2.3:a:f5:nginx:*:*:*:*:*:*:*:*", "matchCriteriaId": "AAA-BBB"}
			]}
		]}
	]
}`

func sampleItem(t *testing.T) nvd.CveItem {
	t.Helper()
	var item nvd.CveItem
	if err := json.Unmarshal([]byte(sampleItemJSON), &item); err != nil {
		t.Fatalf("❌ Failed to decode sample item: %v", err)
	}
	return item
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cves.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("❌ Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.CVE{}); err != nil {
		t.Fatalf("❌ Failed to migrate test database: %v", err)
	}
	return db
}

func TestRecordFromItem(t *testing.T) {
	record, err := RecordFromItem(sampleItem(t))
	if err != nil {
		t.Fatalf("❌ RecordFromItem failed: %v", err)
	}

	if record.CVEID != "CVE-2023-44487" {
		t.Errorf("❌ Unexpected cve_id: %s", record.CVEID)
	}
	if record.Description != "The HTTP/2 protocol allows rapid stream resets." {
		t.Errorf("❌ Expected the English description, got %q", record.Description)
	}
	if record.PublishedDate.Year() != 2023 || record.PublishedDate.Month() != 10 {
		t.Errorf("❌ Unexpected published date: %v", record.PublishedDate)
	}
	if record.BaseScoreV3 == nil || *record.BaseScoreV3 != 7.5 {
		t.Errorf("❌ Expected base_score_v3 7.5, got %v", record.BaseScoreV3)
	}
	if record.BaseScoreV2 == nil || *record.BaseScoreV2 != 5.0 {
		t.Errorf("❌ Expected base_score_v2 5.0, got %v", record.BaseScoreV2)
	}
}

func TestRawDocumentFeedsNormalizer(t *testing.T) {
	record, err := RecordFromItem(sampleItem(t))
	if err != nil {
		t.Fatalf("❌ RecordFromItem failed: %v", err)
	}

	detail := cve.Normalize(&record)

	if detail.CVSSV3 == nil || detail.CVSSV3.BaseScore == nil || *detail.CVSSV3.BaseScore != 7.5 {
		t.Errorf("❌ Expected v3 block with baseScore 7.5, got %+v", detail.CVSSV3)
	}
	if detail.CVSSV2 == nil {
		t.Fatal("❌ Expected v2 block to be present")
	}
	// v2 sub-scores live inside cvssData in the stored document shape.
	if detail.CVSSV2.ExploitabilityScore == nil || *detail.CVSSV2.ExploitabilityScore != 10.0 {
		t.Errorf("❌ Expected folded exploitabilityScore 10.0, got %v", detail.CVSSV2.ExploitabilityScore)
	}
	if len(detail.References) != 1 || detail.References[0].URL == nil || *detail.References[0].URL != "https://example.com/advisory" {
		t.Errorf("❌ Unexpected references: %+v", detail.References)
	}
	if len(detail.Products) != 1 {
		t.Fatalf("❌ Expected 1 product, got %+v", detail.Products)
	}
	if detail.Products[0].Criteria != "cpe:2.3:a:f5:nginx:*:*:*:*:*:*:*:*" || !detail.Products[0].Vulnerable {
		t.Errorf("❌ Unexpected product: %+v", detail.Products[0])
	}
}

func TestIngestUpsert(t *testing.T) {
	db := setupTestDB(t)

	item := sampleItem(t)
	worker := NewWorker(db, nil)
	worker.fetch = func(cveID string) (nvd.CveItem, error) { return item, nil }

	if err := worker.Ingest("CVE-2023-44487"); err != nil {
		t.Fatalf("❌ First ingest failed: %v", err)
	}

	// Upstream revises the record; re-ingesting must update, not duplicate.
	item.LastModified = "2023-12-01T00:00:00.000"
	item.Descriptions = []nvd.LangString{{Lang: "en", Value: "revised description"}}

	if err := worker.Ingest("CVE-2023-44487"); err != nil {
		t.Fatalf("❌ Second ingest failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.CVE{}).Count(&count).Error; err != nil {
		t.Fatalf("❌ Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("❌ Expected 1 row after re-ingest, got %d", count)
	}

	var rec models.CVE
	if err := db.Where("cve_id = ?", "CVE-2023-44487").First(&rec).Error; err != nil {
		t.Fatalf("❌ Fetch failed: %v", err)
	}
	if rec.Description != "revised description" {
		t.Errorf("❌ Expected updated description, got %q", rec.Description)
	}
	if rec.LastModified.Month() != 12 {
		t.Errorf("❌ Expected updated last_modified, got %v", rec.LastModified)
	}
}
