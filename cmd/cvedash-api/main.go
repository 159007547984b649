package main

import (
	"log/slog"
	"os"

	"github.com/cvedash/go-api/cvedash/api"
	"github.com/cvedash/go-api/cvedash/cve"
	"github.com/cvedash/go-api/cvedash/postgres"
	"github.com/cvedash/go-api/cvedash/slogger"
)

func main() {
	slogger.Init()

	if !postgres.IsConnected() {
		slog.Error("Cannot start without a database", "error", postgres.GetConnectionError())
		os.Exit(1)
	}

	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	frontendDir := os.Getenv("FRONTEND_DIR")
	if frontendDir == "" {
		frontendDir = "./frontend"
	}

	handlers := api.NewHandlers(cve.NewRepository())
	server := api.NewServer(addr, handlers, frontendDir)

	if err := server.Start(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
