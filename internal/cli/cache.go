package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fahrtenbuch-logbook/internal/logbook_app"
)

func newCacheCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the offline asset cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Fetch the core assets into the current cache generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
				report, err := app.Generations.Install(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "cache install failed", err)
				}

				lines := []string{fmt.Sprintf("Generation %s: %d assets cached", report.Generation, len(report.Cached))}
				failed := make([]string, 0, len(report.Failed))
				for assetURL := range report.Failed {
					failed = append(failed, assetURL)
				}
				sort.Strings(failed)
				for _, assetURL := range failed {
					lines = append(lines, fmt.Sprintf("  failed %s: %s", assetURL, report.Failed[assetURL]))
				}
				return out.Success(report, strings.Join(lines, "\n"))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "activate",
		Short: "Drop every cache generation except the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
				deleted, err := app.Generations.Activate(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "cache activation failed", err)
				}
				data := map[string]any{"current": app.Generations.Current(), "deleted": deleted}
				text := fmt.Sprintf("Active generation %s, removed %d old generations", app.Generations.Current(), len(deleted))
				return out.Success(data, text)
			})
		},
	})

	return cmd
}
