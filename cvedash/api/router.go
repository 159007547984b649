package api

import (
	"net/http"
)

// SetupCVERoutes registers the CVE endpoints on a mux. Go 1.22 pattern
// routing makes the literal /cves/list segment win over the {cve_id}
// wildcard.
func SetupCVERoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /cves/list", h.ListCVEsHandler)
	mux.HandleFunc("GET /cves/{cve_id}", h.GetCVEHandler)
}

// SetupFrontendRoutes mounts the static frontend bundle at /. API routes
// registered on the same mux take precedence.
func SetupFrontendRoutes(mux *http.ServeMux, dir string) {
	mux.Handle("/", http.FileServer(http.Dir(dir)))
}
