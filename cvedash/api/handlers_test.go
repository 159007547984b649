package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cvedash/go-api/cvedash/cve"
	"github.com/cvedash/go-api/cvedash/postgres/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestMux(t *testing.T) (*http.ServeMux, *gorm.DB) {
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

	mux := http.NewServeMux()
	SetupCVERoutes(mux, NewHandlers(cve.NewRepositoryWithDB(db)))
	return mux, db
}

func seedTestCVE(t *testing.T, db *gorm.DB, id string, published time.Time, raw models.JSONB) {
	t.Helper()
	score := 7.5
	rec := models.CVE{
		CVEID:         id,
		PublishedDate: published,
		LastModified:  published.AddDate(0, 0, 1),
		BaseScoreV3:   &score,
		Description:   "test record " + id,
		RawJSON:       raw,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("❌ Failed to seed %s: %v", id, err)
	}
}

func TestListEndpoint(t *testing.T) {
	mux, db := setupTestMux(t)
	for i, id := range []string{"CVE-2023-0001", "CVE-2023-0002", "CVE-2023-0003"} {
		seedTestCVE(t, db, id, time.Date(2023, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), nil)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cves/list?results_per_page=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("❌ Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("❌ Failed to decode response: %v", err)
	}
	if resp.Page != 1 || resp.ResultsPerPage != 2 {
		t.Errorf("❌ Unexpected paging echo: page=%d size=%d", resp.Page, resp.ResultsPerPage)
	}
	if resp.TotalRecords != 3 {
		t.Errorf("❌ Expected total_records 3, got %d", resp.TotalRecords)
	}
	if len(resp.CVEs) != 2 {
		t.Errorf("❌ Expected 2 records on the page, got %d", len(resp.CVEs))
	}
	// Default ordering is published_date descending.
	if resp.CVEs[0].CVEID != "CVE-2023-0003" {
		t.Errorf("❌ Expected newest record first, got %s", resp.CVEs[0].CVEID)
	}
}

func TestListEndpointFallsBackOnBadParams(t *testing.T) {
	mux, db := setupTestMux(t)
	seedTestCVE(t, db, "CVE-2023-0001", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/cves/list?page=zero&results_per_page=huge&sort_by=evil&sort_order=up&year=abc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("❌ Bad params must fall back, not fail; got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("❌ Failed to decode response: %v", err)
	}
	if resp.Page != 1 || resp.ResultsPerPage != cve.DefaultResultsPerPage {
		t.Errorf("❌ Expected default paging, got page=%d size=%d", resp.Page, resp.ResultsPerPage)
	}
	if resp.TotalRecords != 1 {
		t.Errorf("❌ Unparseable year must not filter anything, got total %d", resp.TotalRecords)
	}
}

func TestDetailEndpoint(t *testing.T) {
	mux, db := setupTestMux(t)
	seedTestCVE(t, db, "CVE-2023-44487", time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC), models.JSONB{
		"metrics": map[string]interface{}{
			"cvssMetricV3": []interface{}{
				map[string]interface{}{
					"cvssData": map[string]interface{}{"baseScore": 7.5, "attackVector": "NETWORK"},
				},
			},
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cves/CVE-2023-44487", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("❌ Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var detail cve.Detail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("❌ Failed to decode response: %v", err)
	}
	if detail.CVEID != "CVE-2023-44487" {
		t.Errorf("❌ Unexpected cve_id: %s", detail.CVEID)
	}
	if detail.CVSSV3 == nil || detail.CVSSV3.AttackVector == nil || *detail.CVSSV3.AttackVector != "NETWORK" {
		t.Errorf("❌ Expected normalized v3 block, got %+v", detail.CVSSV3)
	}
	if detail.CVSSV2 != nil {
		t.Errorf("❌ Expected absent v2 block, got %+v", detail.CVSSV2)
	}
}

func TestDetailNotFound(t *testing.T) {
	mux, _ := setupTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cves/CVE-1999-0000", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("❌ Expected 404, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("❌ Failed to decode response: %v", err)
	}
	if resp.Error != "CVE not found" {
		t.Errorf("❌ Unexpected error body: %q", resp.Error)
	}
}

func TestCORSMiddleware(t *testing.T) {
	mux, _ := setupTestMux(t)
	handler := CORSMiddleware(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/cves/list", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("❌ Expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("❌ Expected permissive default origin, got %q", got)
	}
}
