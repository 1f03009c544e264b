// Package cli implements logbookctl, the operator command line over the logbook application.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/platform/messaging/consumers"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigName string
	Format     string

	// LoadConfig and NewConsumer can be replaced in tests.
	LoadConfig  func(name string) (*config.Config, error)
	NewConsumer func(logger *slog.Logger, cfg *config.KafkaConfig, groupID string) consumers.Consumer
}

// NewRootCommand creates the logbookctl root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.LoadConfig
	}
	if opts.NewConsumer == nil {
		opts.NewConsumer = func(logger *slog.Logger, cfg *config.KafkaConfig, groupID string) consumers.Consumer {
			return consumers.NewSyncEventConsumer(logger, cfg, groupID)
		}
	}

	cmd := &cobra.Command{
		Use:   "logbookctl",
		Short: "Operate the Fahrtenbuch logbook",
		Long: `logbookctl works on the same local store as the logbook app.

It records entries, drives the sync to the remote sheet, manages the
offline asset cache and archives old synced entries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigName, "config", "c", "logbookctl", "config name, resolved as configs/<name>.env")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newAddCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newCacheCommand(opts))
	cmd.AddCommand(newArchiveCommand(opts))
	cmd.AddCommand(newEventsCommand(opts))

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}
