package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cvedash/go-api/cvedash/cve"
)

// ListResponse is the envelope of GET /cves/list.
type ListResponse struct {
	Page           int           `json:"page"`
	ResultsPerPage int           `json:"results_per_page"`
	TotalRecords   int           `json:"total_records"`
	CVEs           []cve.Summary `json:"cves"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers carries the dependencies of the CVE endpoints.
type Handlers struct {
	repo *cve.Repository
}

// NewHandlers creates the endpoint set on top of a repository.
func NewHandlers(repo *cve.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// ListCVEsHandler handles GET /cves/list. Unparseable or out-of-range query
// values fall back to defaults instead of erroring.
func (h *Handlers) ListCVEsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := cve.ListFilters{
		Year:       intParam(q.Get("year")),
		MinScoreV3: floatParam(q.Get("min_score_v3")),
		MinScoreV2: floatParam(q.Get("min_score_v2")),
		LastNDays:  intParam(q.Get("last_n_days")),
		CVEID:      q.Get("cve_id"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}
	if page := intParam(q.Get("page")); page != nil {
		filters.Page = *page
	}
	if size := intParam(q.Get("results_per_page")); size != nil {
		filters.ResultsPerPage = *size
	}

	summaries, total, err := h.repo.List(filters)
	if err != nil {
		slog.Error("CVE listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// List normalized the paging; recompute the echoed values the same way.
	filters.Normalize()

	writeJSON(w, http.StatusOK, ListResponse{
		Page:           filters.Page,
		ResultsPerPage: filters.ResultsPerPage,
		TotalRecords:   total,
		CVEs:           summaries,
	})
}

// GetCVEHandler handles GET /cves/{cve_id}.
func (h *Handlers) GetCVEHandler(w http.ResponseWriter, r *http.Request) {
	cveID := r.PathValue("cve_id")

	detail, err := h.repo.Get(cveID)
	if err != nil {
		if errors.Is(err, cve.ErrNotFound) {
			writeError(w, http.StatusNotFound, "CVE not found")
			return
		}
		slog.Error("CVE lookup failed", "cve_id", cveID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// intParam parses an optional integer query value; invalid input means the
// filter is simply not applied (ValidationFallback, never a 400).
func intParam(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func floatParam(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
