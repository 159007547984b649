package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cvedash/go-api/cvedash/ingest"
	"github.com/cvedash/go-api/cvedash/postgres"
	"github.com/cvedash/go-api/cvedash/queue"
	"github.com/cvedash/go-api/cvedash/slogger"
	"github.com/cvedash/go-api/cvedash/store"
)

func main() {
	slogger.Init()

	if !postgres.IsConnected() {
		slog.Error("Cannot start without a database", "error", postgres.GetConnectionError())
		os.Exit(1)
	}

	qName := os.Getenv("CVE_QUEUE")
	if qName == "" {
		qName = "cve-ingest"
	}

	kv, err := store.NewValkeyStore()
	if err != nil {
		// Sync status is best-effort; ingestion still works without it.
		slog.Warn("KV store unavailable, sync status disabled", "error", err)
		kv = nil
	} else {
		defer kv.Close()
	}

	worker := ingest.NewWorker(postgres.GetDB(), kv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.ListenWithRetry(ctx, qName, worker.ProcessMessage)
}
