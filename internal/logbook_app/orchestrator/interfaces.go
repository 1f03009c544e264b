package orchestrator

import (
	"context"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/syncclient"
)

// Sender forwards one entry to the remote endpoint
type Sender interface {
	Send(ctx context.Context, e *entry.Entry) syncclient.Result
}

// ConnectivityChecker reports whether a send is worth attempting
type ConnectivityChecker interface {
	IsOnline() bool
}

// EventPublisher receives the outcome of every attempt
type EventPublisher interface {
	PublishSyncEvent(ctx context.Context, event *entry.SyncEvent) error
}

// StuckEntryReporter receives entries that crossed the alert threshold
type StuckEntryReporter interface {
	PublishStuckEntry(ctx context.Context, e *entry.Entry, reason string) error
}
