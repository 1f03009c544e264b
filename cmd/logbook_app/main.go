package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/logbook_app"
	"github.com/fahrtenbuch-logbook/internal/logger"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("logbook_app")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting logbook app",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"sync_endpoint", cfg.Sync.EndpointURL,
		"cache_strategy", cfg.Cache.Strategy,
		"kafka_enabled", cfg.KafkaEnabled(),
		"archive_enabled", cfg.ArchiveEnabled(),
	)

	app, err := logbook_app.NewApp(appCtx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize logbook app", "error", err)
		os.Exit(1)
	}

	// Pre-populate the asset cache; the app keeps working offline with whatever was cached
	if report, err := app.Generations.Install(appCtx); err != nil {
		log.Warn("Asset cache install failed", "error", err)
	} else {
		log.Info("Asset cache installed", "generation", report.Generation, "cached", len(report.Cached), "failed", len(report.Failed))
		if _, err := app.Generations.Activate(appCtx); err != nil {
			log.Warn("Asset cache activation failed", "error", err)
		}
	}

	app.Start(appCtx)

	server := logbook_app.NewServer(log, cfg, app)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting entries before the queue is closed
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if closeErr := app.Close(shutdownCtx); closeErr != nil {
		log.Error("Error closing logbook app", "error", closeErr)
		err = closeErr
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Logbook app shutdown completed with errors")
	} else {
		log.Info("Logbook app shutdown completed successfully")
	}
}
