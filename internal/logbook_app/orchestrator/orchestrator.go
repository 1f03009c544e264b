// Package orchestrator drains the local queue of unsynced entries towards the remote sheet.
//
// An entry is marked synced before it is sent and reverted when the send fails. A crash
// between the mark and the revert leaves the entry marked synced although the sheet never
// received it. Overlapping sends of one entry are prevented by the in-flight set within a
// process and by the store's conditional claim across processes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/domain/shared"
)

// Report summarizes one SyncAll pass
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Offline    bool      `json:"offline"`
	Attempted  int       `json:"attempted"`
	Synced     int       `json:"synced"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Pending    int       `json:"pending"`
}

func (r *Report) record(outcome shared.SyncOutcome) {
	switch {
	case outcome.IsSuccess():
		r.Attempted++
		r.Synced++
	case outcome.IsRetryable():
		r.Attempted++
		r.Failed++
	case outcome == shared.SyncOutcomeStoreError:
		r.Failed++
	default:
		r.Skipped++
	}
}

// Status is the snapshot shown to operators
type Status struct {
	Online     bool    `json:"online"`
	Pending    int     `json:"pending"`
	InFlight   int     `json:"in_flight"`
	LastReport *Report `json:"last_report,omitempty"`
}

// Orchestrator runs sync passes and single-entry syncs
type Orchestrator struct {
	store        entry.Repository
	sender       Sender
	connectivity ConnectivityChecker
	events       EventPublisher
	stuck        StuckEntryReporter
	pool         *WorkerPool
	logger       *slog.Logger
	interval     time.Duration
	alertAfter   int

	mu       sync.Mutex
	inFlight map[int64]struct{}

	statusMu   sync.RWMutex
	lastReport *Report

	trigger    chan struct{}
	background sync.WaitGroup
}

// New creates an orchestrator. events and stuck may be nil when Kafka is not configured.
func New(
	cfg *config.SyncConfig,
	store entry.Repository,
	sender Sender,
	connectivity ConnectivityChecker,
	events EventPublisher,
	stuck StuckEntryReporter,
	pool *WorkerPool,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:        store,
		sender:       sender,
		connectivity: connectivity,
		events:       events,
		stuck:        stuck,
		pool:         pool,
		logger:       logger,
		interval:     cfg.Interval,
		alertAfter:   cfg.AlertAfterAttempts,
		inFlight:     make(map[int64]struct{}),
		trigger:      make(chan struct{}, 1),
	}
}

// SyncAll sends every unsynced entry that is not already in flight and waits for the sends.
// When offline it returns at once without touching the store.
func (o *Orchestrator) SyncAll(ctx context.Context) (Report, error) {
	report := Report{StartedAt: time.Now().UTC()}

	if !o.connectivity.IsOnline() {
		report.Offline = true
		report.FinishedAt = report.StartedAt
		o.logger.Debug("Skipping sync pass while offline")
		return report, nil
	}

	entries, err := o.store.ListUnsynced(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list unsynced entries: %w", err)
	}

	var (
		wg       sync.WaitGroup
		reportMu sync.Mutex
	)
	for _, e := range entries {
		id := e.ID
		if !o.acquire(id) {
			reportMu.Lock()
			report.Skipped++
			reportMu.Unlock()
			continue
		}

		wg.Add(1)
		err := o.pool.Submit(func() {
			defer wg.Done()
			defer o.release(id)

			outcome, err := o.syncEntry(ctx, id)
			if err != nil {
				o.logger.Error("Entry sync aborted by store error", "entry_id", id, "error", err)
			}
			reportMu.Lock()
			report.record(outcome)
			reportMu.Unlock()
		})
		if err != nil {
			wg.Done()
			o.release(id)
			o.logger.Error("Failed to submit entry to worker pool", "entry_id", id, "error", err)
			reportMu.Lock()
			report.Skipped++
			reportMu.Unlock()
		}
	}
	wg.Wait()

	if pending, err := o.store.CountUnsynced(ctx); err != nil {
		o.logger.Error("Failed to count unsynced entries after sync pass", "error", err)
	} else {
		report.Pending = pending
	}
	report.FinishedAt = time.Now().UTC()
	o.setLastReport(report)

	if report.Attempted > 0 || report.Failed > 0 {
		o.logger.Info("Sync pass finished",
			"attempted", report.Attempted,
			"synced", report.Synced,
			"failed", report.Failed,
			"skipped", report.Skipped,
			"pending", report.Pending,
		)
	}

	return report, nil
}

// SyncOne syncs a single entry unless it is already in flight. Missing or already synced
// entries are skipped without error.
func (o *Orchestrator) SyncOne(ctx context.Context, id int64) (shared.SyncOutcome, error) {
	if !o.connectivity.IsOnline() {
		return shared.SyncOutcomeOffline, nil
	}
	if !o.acquire(id) {
		return shared.SyncOutcomeSkipped, nil
	}
	defer o.release(id)

	return o.syncEntry(ctx, id)
}

// SyncOneAsync starts SyncOne in the background and returns immediately. The sync outlives
// ctx; Wait blocks until every background sync has finished.
func (o *Orchestrator) SyncOneAsync(ctx context.Context, id int64) {
	ctx = context.WithoutCancel(ctx)
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		if _, err := o.SyncOne(ctx, id); err != nil {
			o.logger.Error("Background entry sync failed", "entry_id", id, "error", err)
		}
	}()
}

// Wait blocks until background syncs started by SyncOneAsync have returned
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// Trigger asks the Start loop for an extra pass. Requests made while one is queued are merged.
func (o *Orchestrator) Trigger() {
	select {
	case o.trigger <- struct{}{}:
	default:
	}
}

// Start runs a pass every interval and on each Trigger until ctx is canceled
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Info("Starting sync orchestrator",
		"interval", o.interval.String(),
		"alert_after_attempts", o.alertAfter,
		"workers", o.pool.Capacity(),
	)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Sync orchestrator stopping due to context cancellation.")
			return
		case <-ticker.C:
			o.runPass(ctx, "interval")
		case <-o.trigger:
			o.runPass(ctx, "trigger")
		}
	}
}

func (o *Orchestrator) runPass(ctx context.Context, reason string) {
	o.logger.Debug("Sync pass starting", "reason", reason)
	if _, err := o.SyncAll(ctx); err != nil {
		o.logger.Error("Sync pass failed", "reason", reason, "error", err)
	}
}

// Status reports connectivity, queue length and the last pass
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	pending, err := o.store.CountUnsynced(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to count unsynced entries: %w", err)
	}

	o.mu.Lock()
	inFlight := len(o.inFlight)
	o.mu.Unlock()

	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	var last *Report
	if o.lastReport != nil {
		r := *o.lastReport
		last = &r
	}

	return Status{
		Online:     o.connectivity.IsOnline(),
		Pending:    pending,
		InFlight:   inFlight,
		LastReport: last,
	}, nil
}

// syncEntry claims, sends and settles one entry. The caller holds the in-flight slot.
func (o *Orchestrator) syncEntry(ctx context.Context, id int64) (shared.SyncOutcome, error) {
	logger := o.logger.With("entry_id", id)

	e, err := o.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, entry.ErrEntryNotFound{}) {
			return shared.SyncOutcomeSkipped, nil
		}
		return shared.SyncOutcomeStoreError, fmt.Errorf("failed to load entry %d: %w", id, err)
	}
	if e.Synced {
		return shared.SyncOutcomeSkipped, nil
	}

	claimed, err := o.store.ClaimUnsynced(ctx, id)
	if err != nil {
		return shared.SyncOutcomeStoreError, fmt.Errorf("failed to claim entry %d: %w", id, err)
	}
	if !claimed {
		logger.Debug("Entry claimed elsewhere, skipping")
		return shared.SyncOutcomeSkipped, nil
	}

	result := o.sender.Send(ctx, e)

	// Settling must not be cut short by the caller, or a claimed entry would stay marked synced
	settleCtx := context.WithoutCancel(ctx)

	errMsg := ""
	if !result.Outcome.IsSuccess() {
		errMsg = string(result.Outcome)
		if result.Err != nil {
			errMsg = result.Err.Error()
		}
		if err := o.store.SetSynced(settleCtx, id, false); err != nil {
			logger.Error("Failed to revert synced flag after failed send",
				"outcome", result.Outcome,
				"error", err,
			)
		}
	}

	attempts, err := o.store.RecordSyncAttempt(settleCtx, id, errMsg)
	if err != nil {
		logger.Warn("Failed to record sync attempt", "error", err)
		attempts = e.SyncAttempts + 1
	}

	if result.Outcome.IsSuccess() {
		logger.Info("Entry synced", "attempts", attempts)
	} else {
		logger.Warn("Entry sync failed, will retry",
			"outcome", result.Outcome,
			"status_code", result.StatusCode,
			"attempts", attempts,
			"error", errMsg,
		)
	}

	o.publishEvent(settleCtx, logger, entry.NewSyncEvent(id, result.Outcome, attempts, errMsg))

	if !result.Outcome.IsSuccess() && attempts == o.alertAfter {
		e.SyncAttempts = attempts
		e.LastSyncErr = errMsg
		o.reportStuck(settleCtx, logger, e)
	}

	return result.Outcome, nil
}

func (o *Orchestrator) publishEvent(ctx context.Context, logger *slog.Logger, event *entry.SyncEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishSyncEvent(ctx, event); err != nil {
		logger.Warn("Failed to publish sync event", "error", err)
	}
}

func (o *Orchestrator) reportStuck(ctx context.Context, logger *slog.Logger, e *entry.Entry) {
	if o.stuck == nil {
		logger.Warn("Entry keeps failing to sync", "attempts", e.SyncAttempts, "last_error", e.LastSyncErr)
		return
	}
	reason := fmt.Sprintf("sync failed %d times: %s", e.SyncAttempts, e.LastSyncErr)
	if err := o.stuck.PublishStuckEntry(ctx, e, reason); err != nil {
		logger.Warn("Failed to report stuck entry", "error", err)
	}
}

// acquire atomically checks and inserts id into the in-flight set
func (o *Orchestrator) acquire(id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[id]; busy {
		return false
	}
	o.inFlight[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id int64) {
	o.mu.Lock()
	delete(o.inFlight, id)
	o.mu.Unlock()
}

func (o *Orchestrator) setLastReport(r Report) {
	o.statusMu.Lock()
	o.lastReport = &r
	o.statusMu.Unlock()
}
