package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
	"github.com/fahrtenbuch-logbook/internal/logbook_app"
)

func newAddCommand(opts *RootOptions) *cobra.Command {
	var fields entry.Fields

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new entry",
		Long: `Record a new logbook entry in the local store.

Numbers are taken as typed, German separators included. When the sheet
endpoint is reachable the entry is sent right away, otherwise it waits
for the next sync.

Example:
  logbookctl add --datum 2025-01-03 --kategorie Tanken --km-stand 233.300 --liter 40,5 --kosten 70,12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(fields.Datum) == "" {
				return NewExitError(ExitCommandError, "--datum is required")
			}
			return withApp(cmd, opts, true, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
				e, err := app.EntryService.Save(ctx, fields)
				if err != nil {
					return WrapExitError(ExitCommandError, "save failed, please retry", err)
				}

				// Let the background send finish so the printed state is final
				app.Orchestrator.Wait()
				if refreshed, err := app.Entries.Get(ctx, e.ID); err == nil {
					e = refreshed
				}

				state := "pending sync"
				if e.Synced {
					state = "synced"
				}
				return out.Success(e, fmt.Sprintf("Entry %d saved (%s)", e.ID, state))
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fields.Datum, "datum", "", "date of the entry (required)")
	flags.StringVar(&fields.Kategorie, "kategorie", "", "category, e.g. Tanken or Fahrt")
	flags.StringVar(&fields.KmStand, "km-stand", "", "odometer reading")
	flags.StringVar(&fields.KmTrip, "km-trip", "", "trip distance")
	flags.StringVar(&fields.SpritLiter, "liter", "", "fuel in litres")
	flags.StringVar(&fields.Kosten, "kosten", "", "total cost")
	flags.StringVar(&fields.PreisJeLiter, "preis", "", "price per litre")
	flags.StringVar(&fields.Tankstelle, "tankstelle", "", "fuel station")
	flags.StringVar(&fields.Bemerkung, "bemerkung", "", "free text note")

	return cmd
}

func newListCommand(opts *RootOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || offset < 0 {
				return NewExitError(ExitCommandError, "--limit must be positive and --offset must not be negative")
			}
			return withApp(cmd, opts, false, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
				entries, err := app.EntryService.List(ctx, limit, offset)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list entries", err)
				}
				return out.Success(entries, renderEntries(entries))
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")

	return cmd
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one entry, looking into the archive if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, false, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
				e, err := app.EntryService.Get(ctx, id)
				if err != nil {
					if errors.Is(err, entry.ErrEntryNotFound{}) {
						return WrapExitError(ExitFailure, "entry not found", err)
					}
					return WrapExitError(ExitCommandError, "failed to get entry", err)
				}
				return out.Success(e, renderEntries([]*entry.Entry{e}))
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid entry ID %q", raw))
	}
	return id, nil
}

func renderEntries(entries []*entry.Entry) string {
	if len(entries) == 0 {
		return "No entries"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATUM\tKATEGORIE\tKM-STAND\tLITER\tKOSTEN\tSYNCED\tATTEMPTS")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\t%d\n",
			e.ID, e.Fields.Datum, e.Fields.Kategorie, e.Fields.KmStand,
			e.Fields.SpritLiter, e.Fields.Kosten, e.Synced, e.SyncAttempts)
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}
