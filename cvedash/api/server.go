package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cvedash/go-api/cvedash/postgres"
)

// Server wraps the dashboard HTTP server: CVE endpoints, the static
// frontend, a health check, and CORS handling.
type Server struct {
	server *http.Server
	mux    *http.ServeMux
}

// NewServer wires the routes and returns a server ready to Start.
func NewServer(addr string, h *Handlers, frontendDir string) *Server {
	mux := http.NewServeMux()

	SetupCVERoutes(mux, h)
	SetupFrontendRoutes(mux, frontendDir)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			"status":   "healthy",
			"service":  "cvedash-api",
			"database": "connected",
		}
		code := http.StatusOK
		if !postgres.IsConnected() {
			status["status"] = "degraded"
			status["database"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Error("Failed to write health response", "error", err)
		}
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      CORSMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		server: server,
		mux:    mux,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("Starting CVE dashboard API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop() error {
	slog.Info("Stopping CVE dashboard API server")
	return s.server.Close()
}

// GetMux returns the HTTP mux for custom route additions.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}
