package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/logbook_app"
	"github.com/fahrtenbuch-logbook/internal/logger"
)

// appRun is the body of a command that works on the application
type appRun func(ctx context.Context, app *logbook_app.App, out *OutputFormatter) error

func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := opts.LoadConfig(opts.ConfigName)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	return cfg, logger.NewCLILogger(cfg, cmd.ErrOrStderr()), nil
}

// withApp builds the application for one command and closes it afterwards, waiting for
// background syncs the command started. With probe set, connectivity is checked first so
// sync decisions see the real state.
func withApp(cmd *cobra.Command, opts *RootOptions, probe bool, run appRun) (err error) {
	cfg, log, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	app, err := logbook_app.NewApp(ctx, cfg, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open logbook", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if closeErr := app.Close(closeCtx); closeErr != nil {
			log.Error("Failed to close logbook", "error", closeErr)
			if err == nil {
				err = WrapExitError(ExitCommandError, "failed to close logbook", closeErr)
			}
		}
	}()

	if probe {
		app.Monitor.Check(ctx)
	}

	return run(ctx, app, formatter(cmd, opts))
}
