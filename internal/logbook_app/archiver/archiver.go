// Package archiver moves synced entries older than the retention period from the local
// store into the archive.
package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

// Result summarises one archive run
type Result struct {
	Archived int   `json:"archived"`
	Deleted  int64 `json:"deleted"`
	Batches  int   `json:"batches"`
}

// Archiver archives synced entries in batches
type Archiver struct {
	store     entry.Repository
	archive   entry.ArchiveRepository
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
	batchSize int
	now       func() time.Time
}

func NewArchiver(
	cfg *config.ArchiveConfig,
	store entry.Repository,
	archive entry.ArchiveRepository,
	logger *slog.Logger,
) *Archiver {
	return &Archiver{
		store:     store,
		archive:   archive,
		logger:    logger,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

// Start runs the archiver until context is canceled
func (a *Archiver) Start(ctx context.Context) {
	a.logger.Info("Starting archiver",
		"interval", a.interval.String(),
		"retention", a.retention.String(),
		"batch_size", a.batchSize,
	)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Archiver stopping due to context cancellation.")
			return
		case <-ticker.C:
			if _, err := a.Run(ctx); err != nil {
				a.logger.Error("Archive run failed", "error", err)
			}
		}
	}
}

// Run archives every eligible entry. Local copies are deleted only after the archive
// accepted the batch, so a failed run leaves them in place for the next one.
func (a *Archiver) Run(ctx context.Context) (*Result, error) {
	cutoff := a.now().Add(-a.retention)
	result := &Result{}

	for {
		entries, err := a.store.ListSyncedBefore(ctx, cutoff, a.batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to list archivable entries: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		if err := a.archive.Store(ctx, entries); err != nil {
			return result, fmt.Errorf("failed to archive %d entries: %w", len(entries), err)
		}

		ids := make([]int64, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		deleted, err := a.store.DeleteSynced(ctx, ids)
		if err != nil {
			return result, fmt.Errorf("entries archived, but failed to delete local copies: %w", err)
		}

		result.Archived += len(entries)
		result.Deleted += deleted
		result.Batches++

		// A short delete means the store kept some rows; listing again could return the same batch
		if deleted < int64(len(entries)) || len(entries) < a.batchSize {
			break
		}
	}

	if result.Archived > 0 {
		a.logger.Info("Archived synced entries",
			"archived", result.Archived,
			"deleted", result.Deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	} else {
		a.logger.Debug("No entries to archive", "cutoff", cutoff.Format(time.RFC3339))
	}

	return result, nil
}
