package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docstore/internal/admin"
	"docstore/internal/api"
	"docstore/internal/config"
	"docstore/internal/handler"
	"docstore/internal/persistence"
	"docstore/internal/rules"
	"docstore/internal/store"
	"docstore/internal/triggers"
)

func main() {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded configuration from .env file")
	}

	cfg := config.LoadConfig()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// 1. Initialize the document store and restore persisted collections.
	db := store.New()
	storage, err := persistence.NewFileStorage(cfg.DataDir)
	if err != nil {
		slog.Error("Fatal error initializing storage", "error", err)
		os.Exit(1)
	}
	if err := storage.LoadAll(db); err != nil {
		slog.Error("Fatal error loading persisted collections", "error", err)
		os.Exit(1)
	}

	// 2. Wire the pipeline: policy evaluation, trigger dispatch, operations.
	registry := rules.NewRegistry()
	side := &rules.Side{}
	evaluator := rules.NewEvaluator(registry, side, cfg.Verbose)
	dispatcher := triggers.NewDispatcher()
	pipeline := handler.New(db, evaluator, dispatcher, cfg.Verbose)
	side.Admin = admin.New(pipeline)

	// Development default: every operation allowed. Deployments register
	// their own policies per collection before exposing the server.
	registry.SetDefault(func(_ *rules.Request, res *rules.Response, _ *rules.Side) error {
		res.AllowAll()
		return nil
	})
	slog.Warn("No custom policy registered, running with the permissive development policy")

	// 3. Scheduled snapshots.
	snapshotManager := persistence.NewSnapshotManager(db, storage, cfg.SnapshotInterval, cfg.EnableSnapshots)
	go snapshotManager.Start()

	// 4. HTTP transport.
	server := api.NewServer(&cfg, pipeline)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start server", "error", err)
			os.Exit(1)
		}
	}()

	// 5. Graceful shutdown: stop accepting requests, drain triggers, save.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Termination signal received. Attempting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server gracefully stopped")
	}

	snapshotManager.Stop()
	dispatcher.Close()

	slog.Info("Saving collections before application exit...")
	if err := storage.SaveAll(db); err != nil {
		slog.Error("Error saving collections during shutdown", "error", err)
	} else {
		slog.Info("Collections saved. Application exiting.")
	}
}
