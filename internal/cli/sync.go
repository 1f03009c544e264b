package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fahrtenbuch-logbook/internal/domain/shared"
	"github.com/fahrtenbuch-logbook/internal/logbook_app"
	"github.com/fahrtenbuch-logbook/internal/logbook_app/orchestrator"
)

func newSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [id]",
		Short: "Send unsynced entries to the sheet endpoint",
		Long: `Send every unsynced entry, or only the given one, to the sheet endpoint.

Connectivity is probed first. Entries that fail stay queued for the
next run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return withApp(cmd, opts, true, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
					return syncOne(ctx, app, out, id)
				})
			}
			return withApp(cmd, opts, true, syncAll)
		},
	}
}

func syncAll(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
	report, err := app.Orchestrator.SyncAll(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "sync failed", err)
	}

	if report.Offline {
		pending, _ := app.EntryService.PendingCount(ctx)
		return out.Failure(report, fmt.Sprintf("Offline, %d entries pending", pending),
			NewExitError(ExitFailure, "sheet endpoint not reachable"))
	}

	text := fmt.Sprintf("Synced %d of %d entries, %d failed, %d skipped, %d pending",
		report.Synced, report.Attempted, report.Failed, report.Skipped, report.Pending)
	if report.Failed > 0 {
		return out.Failure(report, text, NewExitError(ExitFailure, fmt.Sprintf("%d entries failed to sync", report.Failed)))
	}
	return out.Success(report, text)
}

type syncOneResult struct {
	ID      int64              `json:"id"`
	Outcome shared.SyncOutcome `json:"outcome"`
}

func syncOne(ctx context.Context, app *logbook_app.App, out *OutputFormatter, id int64) error {
	outcome, err := app.Orchestrator.SyncOne(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "sync failed", err)
	}

	result := syncOneResult{ID: id, Outcome: outcome}
	text := fmt.Sprintf("Entry %d: %s", id, outcome)
	switch {
	case outcome.IsSuccess(), outcome == shared.SyncOutcomeSkipped:
		return out.Success(result, text)
	default:
		return out.Failure(result, text, NewExitError(ExitFailure, fmt.Sprintf("entry %d not synced: %s", id, outcome)))
	}
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and the number of pending entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
				status, err := app.Orchestrator.Status(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read status", err)
				}
				return out.Success(status, renderStatus(status))
			})
		},
	}
}

func renderStatus(s orchestrator.Status) string {
	connectivity := "offline"
	if s.Online {
		connectivity = "online"
	}
	return fmt.Sprintf("Connectivity: %s\nPending:      %d\nIn flight:    %d", connectivity, s.Pending, s.InFlight)
}
