// Package ingest consumes CVE identifiers from the ingestion queue, fetches
// the corresponding upstream records, and upserts them into the cves table in
// the document shape the dashboard serves. It is the only writer of the
// table; the API layer is read-only.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cvedash/go-api/cvedash/postgres/models"
	"github.com/cvedash/go-api/cvedash/store"
	"github.com/cvedash/go-api/nvd"
	"gorm.io/gorm"
)

// Fetcher retrieves one upstream CVE record. Defaults to nvd.GetCVE;
// replaceable in tests.
type Fetcher func(cveID string) (nvd.CveItem, error)

// Worker processes ingestion queue messages. Each message body is a single
// CVE identifier.
type Worker struct {
	db    *gorm.DB
	kv    store.KVStore
	fetch Fetcher
}

// NewWorker creates a Worker writing to db and recording sync status in kv.
// kv may be nil, in which case status updates are skipped.
func NewWorker(db *gorm.DB, kv store.KVStore) *Worker {
	return &Worker{db: db, kv: kv, fetch: nvd.GetCVE}
}

// ProcessMessage is the queue.MessageProcessor entry point. Failures are
// logged and dropped; the queue is fire-and-forget.
func (w *Worker) ProcessMessage(msg string) {
	if err := w.Ingest(msg); err != nil {
		slog.Error("Ingestion failed", "cve_id", msg, "error", err)
		return
	}
	slog.Info("Ingested CVE", "cve_id", msg)
}

// Ingest fetches one CVE from upstream and upserts it.
func (w *Worker) Ingest(cveID string) error {
	item, err := w.fetch(cveID)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", cveID, err)
	}
	if item.ID == "" {
		return fmt.Errorf("upstream has no record for %s", cveID)
	}

	record, err := RecordFromItem(item)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", cveID, err)
	}

	if err := w.upsert(record); err != nil {
		return err
	}

	w.recordSyncStatus(record.CVEID)
	return nil
}

// upsert creates the record or, when the identifier already exists, updates
// the mutable columns. cve_id itself is immutable once created.
func (w *Worker) upsert(record models.CVE) error {
	if w.db == nil {
		return fmt.Errorf("database connection not available")
	}

	var existing models.CVE
	err := w.db.Where("cve_id = ?", record.CVEID).First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{
			"published_date": record.PublishedDate,
			"last_modified":  record.LastModified,
			"base_score_v2":  record.BaseScoreV2,
			"base_score_v3":  record.BaseScoreV3,
			"description":    record.Description,
			"raw_json":       record.RawJSON,
			"updated_at":     time.Now(),
		}
		if err := w.db.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update CVE %s: %w", record.CVEID, err)
		}
		return nil
	}

	if err := w.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create CVE %s: %w", record.CVEID, err)
	}
	return nil
}

// recordSyncStatus writes the last-sync markers. Status is best-effort and
// never fails an ingest.
func (w *Worker) recordSyncStatus(cveID string) {
	if w.kv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.kv.SetValue(ctx, store.KeyIngestLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("Failed to record sync time", "error", err)
	}
	if err := w.kv.SetValue(ctx, store.KeyIngestLastCVE, cveID); err != nil {
		slog.Warn("Failed to record last CVE", "error", err)
	}
}

// RecordFromItem maps an upstream record to a table row. The raw document is
// rebuilt in the dashboard's storage shape rather than stored verbatim.
func RecordFromItem(item nvd.CveItem) (models.CVE, error) {
	published, err := nvd.ParseTime(item.Published)
	if err != nil {
		return models.CVE{}, fmt.Errorf("bad published timestamp: %w", err)
	}
	modified, err := nvd.ParseTime(item.LastModified)
	if err != nil {
		return models.CVE{}, fmt.Errorf("bad lastModified timestamp: %w", err)
	}

	return models.CVE{
		CVEID:         item.ID,
		PublishedDate: published,
		LastModified:  modified,
		BaseScoreV2:   item.BaseScoreV2(),
		BaseScoreV3:   item.BaseScoreV3(),
		Description:   item.EnglishDescription(),
		RawJSON:       buildRawDocument(item),
	}, nil
}

// buildRawDocument converts the typed upstream record into the loosely typed
// document the normalizer reads: metrics.cvssMetricV2/cvssMetricV3 with
// sub-scores folded into cvssData, references.reference_data pairs, and
// configurations.nodes with cpe_match entries keyed by cpe23Uri.
func buildRawDocument(item nvd.CveItem) models.JSONB {
	doc := models.JSONB{
		"id":               item.ID,
		"vulnStatus":       item.VulnStatus,
		"sourceIdentifier": item.SourceIdentifier,
	}

	metrics := map[string]interface{}{}
	if v3 := metricV3Entries(item.Metrics); len(v3) > 0 {
		metrics["cvssMetricV3"] = v3
	}
	if v2 := metricV2Entries(item.Metrics.CvssMetricV2); len(v2) > 0 {
		metrics["cvssMetricV2"] = v2
	}
	if len(metrics) > 0 {
		doc["metrics"] = metrics
	}

	refs := make([]interface{}, 0, len(item.References))
	for _, r := range item.References {
		refs = append(refs, map[string]interface{}{
			"url":  r.URL,
			"name": r.Source,
		})
	}
	doc["references"] = map[string]interface{}{"reference_data": refs}

	nodes := []interface{}{}
	for _, cfg := range item.Configurations {
		for _, node := range cfg.Nodes {
			matches := make([]interface{}, 0, len(node.CpeMatch))
			for _, m := range node.CpeMatch {
				matches = append(matches, map[string]interface{}{
					"cpe23Uri":        m.Criteria,
					"matchCriteriaId": m.MatchCriteriaID,
					"vulnerable":      m.Vulnerable,
				})
			}
			nodes = append(nodes, map[string]interface{}{
				"operator":  node.Operator,
				"cpe_match": matches,
			})
		}
	}
	doc["configurations"] = map[string]interface{}{"nodes": nodes}

	return doc
}

// metricV3Entries flattens v3.1 and v3.0 metrics into one list, v3.1 first,
// so the normalizer's first-element rule prefers the newer scheme.
func metricV3Entries(m nvd.Metrics) []interface{} {
	entries := []interface{}{}
	for _, metric := range append(append([]nvd.CvssV3{}, m.CvssMetricV31...), m.CvssMetricV30...) {
		data := toDocument(metric.CvssData)
		entries = append(entries, map[string]interface{}{
			"source":   metric.Source,
			"type":     metric.Type,
			"cvssData": data,
		})
	}
	return entries
}

func metricV2Entries(metrics []nvd.CvssV2) []interface{} {
	entries := []interface{}{}
	for _, metric := range metrics {
		data := toDocument(metric.CvssData)
		// The dashboard schema keeps the sub-scores inside cvssData.
		if metric.ExploitabilityScore != nil {
			data["exploitabilityScore"] = *metric.ExploitabilityScore
		}
		if metric.ImpactScore != nil {
			data["impactScore"] = *metric.ImpactScore
		}
		entries = append(entries, map[string]interface{}{
			"source":   metric.Source,
			"type":     metric.Type,
			"cvssData": data,
		})
	}
	return entries
}

// toDocument round-trips a typed struct through JSON into a loose map.
func toDocument(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}
