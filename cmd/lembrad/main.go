package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abreulima/lembra/internal/config"
	"github.com/abreulima/lembra/internal/httpapi"
	"github.com/abreulima/lembra/internal/memory"
	"github.com/abreulima/lembra/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := memory.NewStore(ctx, cfg.DatabaseURL, cfg.SQLitePath, cfg.TableName)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer store.Close()

	switch {
	case cfg.DatabaseURL != "":
		log.Printf("memory store: postgres (table %s)", store.TableName())
	case cfg.SQLitePath != "":
		log.Printf("memory store: sqlite at %s (table %s)", cfg.SQLitePath, store.TableName())
	default:
		log.Printf("memory store: in-memory (no DATABASE_URL or MEMORY_SQLITE_PATH set)")
	}

	api := httpapi.New(cfg, store, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
