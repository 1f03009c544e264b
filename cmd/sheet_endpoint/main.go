package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/data/postgres"
	"github.com/fahrtenbuch-logbook/internal/logger"
	"github.com/fahrtenbuch-logbook/internal/platform/persistence"
	"github.com/fahrtenbuch-logbook/internal/sheet_endpoint"
	"github.com/fahrtenbuch-logbook/internal/sheet_endpoint/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("sheet_endpoint")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting sheet endpoint",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"sheet", cfg.Sheet.Name,
	)

	if err := persistence.RunMigrations(cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
		log.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	sheetRepo := postgres.NewSheetRepository(log, postgresDB)
	sheetService := service.NewSheetService(postgresDB, sheetRepo, cfg.Sheet.Name, log)

	server := sheet_endpoint.NewServer(log, cfg, sheetService)

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

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Requests are drained, the pool can go
	postgresDB.Close()

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Sheet endpoint shutdown completed with errors")
	} else {
		log.Info("Sheet endpoint shutdown completed successfully")
	}
}
