package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fahrtenbuch-logbook/internal/logbook_app"
)

func newArchiveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move old synced entries to the archive",
		Long: `Move synced entries older than ARCHIVE_RETENTION from the local store
to the MongoDB archive. Unsynced entries are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error {
				if app.Archiver == nil {
					return NewExitError(ExitCommandError, "archiving is disabled, set MONGO_URI and ARCHIVE_RETENTION")
				}
				result, err := app.Archiver.Run(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "archive run failed", err)
				}
				return out.Success(result, fmt.Sprintf("Archived %d entries, removed %d locally", result.Archived, result.Deleted))
			})
		},
	}
}
