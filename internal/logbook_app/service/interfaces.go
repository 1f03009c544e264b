package service

import (
	"context"
	"net/http"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/cache"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/orchestrator"
)

// EntryService defines the interface for logbook entry operations
type EntryService interface {
	// Save stores the entry locally and, when online, starts syncing it in the background.
	// Only local storage failures are returned.
	Save(ctx context.Context, fields entry.Fields) (*entry.Entry, error)

	// Get looks the entry up locally and then in the archive
	// Returns ErrEntryNotFound if neither knows it
	Get(ctx context.Context, id int64) (*entry.Entry, error)

	List(ctx context.Context, limit, offset int) ([]*entry.Entry, error)
	PendingCount(ctx context.Context) (int, error)
}

// Syncer starts a sync of a single entry without waiting for it
type Syncer interface {
	SyncOneAsync(ctx context.Context, id int64)
}

// ConnectivityChecker reports the last known connectivity state
type ConnectivityChecker interface {
	IsOnline() bool
}

// SyncController drives the sync pipeline on behalf of the API and the CLI
type SyncController interface {
	SyncAll(ctx context.Context) (orchestrator.Report, error)
	SyncOne(ctx context.Context, id int64) (shared.SyncOutcome, error)
	Status(ctx context.Context) (orchestrator.Status, error)
}

// ConnectivityController exposes the connectivity state with a manual override
type ConnectivityController interface {
	IsOnline() bool
	SetOnline(ctx context.Context, online bool)
}

// CacheManager installs and activates asset cache generations
type CacheManager interface {
	Current() string
	Install(ctx context.Context) (*cache.InstallReport, error)
	Activate(ctx context.Context) ([]string, error)
}

// AssetFetcher loads application assets through the caching layer
type AssetFetcher interface {
	Fetch(ctx context.Context, path, accept string) (*http.Response, error)
}
