// Package logbook_app wires the logbook application: the local entry queue, the sync
// pipeline, the asset cache, archiving and the HTTP API on top of them.
package logbook_app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/data/mongo"
	"github.com/fahrtenbuch-logbook/internal/data/sqlite"
	"github.com/fahrtenbuch-logbook/internal/domain/asset"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/archiver"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/cache"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/connectivity"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/orchestrator"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/service"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/syncclient"
	"github.com/fahrtenbuch-logbook/internal/platform/messaging/producers"
	"github.com/fahrtenbuch-logbook/internal/platform/persistence"
)

// App owns every component of the logbook application. It is built once by NewApp and
// torn down by Close; nothing is kept in package state.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	sqliteDB *persistence.SQLiteDB
	mongoDB  *persistence.MongoDB

	Entries entry.Repository
	Assets  asset.Repository
	Archive entry.ArchiveRepository // nil when archiving is disabled

	Monitor      *connectivity.Monitor
	Orchestrator *orchestrator.Orchestrator
	Generations  *cache.Generations
	AssetClient  *cache.AssetClient
	Archiver     *archiver.Archiver // nil when archiving is disabled
	EntryService service.EntryService

	pool       *orchestrator.WorkerPool
	transport  *cache.Transport
	syncEvents *producers.SyncEventProducer
	dlq        *producers.DLQProducer

	cancel  context.CancelFunc
	running sync.WaitGroup
}

var (
	_ orchestrator.EventPublisher     = (*producers.SyncEventProducer)(nil)
	_ orchestrator.StuckEntryReporter = (*producers.DLQProducer)(nil)
)

// NewApp opens the stores and builds the components. Kafka and MongoDB are only contacted
// when configured. On error everything opened so far is closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			if closeErr := a.closeResources(context.WithoutCancel(ctx)); closeErr != nil {
				logger.Error("Failed to release resources after startup error", "error", closeErr)
			}
		}
	}()

	a.sqliteDB, err = persistence.NewSQLiteDB(ctx, logger, &cfg.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}
	a.Entries = sqlite.NewEntryRepository(logger, a.sqliteDB)
	a.Assets = sqlite.NewAssetCacheRepository(logger, a.sqliteDB)

	if cfg.ArchiveEnabled() {
		a.mongoDB, err = persistence.NewMongoDB(ctx, logger, &cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
		a.Archive = mongo.NewArchiveRepository(logger, a.mongoDB.Database())
		a.Archiver = archiver.NewArchiver(&cfg.Archive, a.Entries, a.Archive, logger.With("component", "archiver"))
	}

	// Interface values stay nil unless a producer exists
	var (
		events orchestrator.EventPublisher
		stuck  orchestrator.StuckEntryReporter
	)
	if cfg.KafkaEnabled() {
		a.syncEvents, err = producers.NewSyncEventProducer(ctx, logger, &cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sync event producer: %w", err)
		}
		events = a.syncEvents

		a.dlq, err = producers.NewDLQProducer(ctx, logger, &cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize DLQ producer: %w", err)
		}
		if a.dlq != nil {
			stuck = a.dlq
		}
	}

	a.pool, err = orchestrator.NewWorkerPool(cfg.WorkerPool.Size, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	a.Monitor = connectivity.NewMonitor(
		logger.With("component", "connectivity"),
		&cfg.Connectivity,
		connectivity.NewHTTPProber(nil, cfg.Connectivity.ProbeURL),
	)

	sender := syncclient.NewClient(logger.With("component", "sync_client"), &cfg.Sync, nil)
	a.Orchestrator = orchestrator.New(&cfg.Sync, a.Entries, sender, a.Monitor, events, stuck, a.pool,
		logger.With("component", "orchestrator"))
	a.Monitor.OnRegained(func(context.Context) {
		a.Orchestrator.Trigger()
	})

	a.transport, err = cache.NewTransport(logger.With("component", "cache"), &cfg.Cache, a.Assets, http.DefaultTransport, cfg.Sync.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache transport: %w", err)
	}
	a.Generations, err = cache.NewGenerations(logger.With("component", "cache"), &cfg.Cache, a.Assets, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache generations: %w", err)
	}
	a.AssetClient = cache.NewAssetClient(a.transport, a.Generations)

	a.EntryService = service.NewEntryService(a.Entries, a.Archive, a.Orchestrator, a.Monitor, logger)

	return a, nil
}

// Start launches the connectivity monitor, the sync loop and the archiver. They stop when
// ctx is canceled or Close is called.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.goRun(func() { a.Monitor.Start(ctx) })
	a.goRun(func() { a.Orchestrator.Start(ctx) })
	if a.Archiver != nil {
		a.goRun(func() { a.Archiver.Start(ctx) })
	}
}

func (a *App) goRun(fn func()) {
	a.running.Add(1)
	go func() {
		defer a.running.Done()
		fn()
	}()
}

// Close stops the background loops, waits for in-flight syncs and releases every resource
func (a *App) Close(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.running.Wait()
	a.Orchestrator.Wait()
	a.transport.Wait()

	return a.closeResources(ctx)
}

func (a *App) closeResources(ctx context.Context) error {
	var errs []error

	if a.pool != nil {
		a.pool.Shutdown(a.cfg.Server.ShutdownTimeout)
	}
	if a.syncEvents != nil {
		if err := a.syncEvents.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sync event producer: %w", err))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("DLQ producer: %w", err))
		}
	}
	if a.mongoDB != nil {
		if err := a.mongoDB.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb: %w", err))
		}
	}
	if a.sqliteDB != nil {
		if err := a.sqliteDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sqlite: %w", err))
		}
	}

	return errors.Join(errs...)
}
