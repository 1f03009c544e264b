package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

func newEventsCommand(opts *RootOptions) *cobra.Command {
	var (
		group string
		tail  bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print sync events from Kafka",
		Long: `Print the events published after every send attempt.

With a consumer group (the default) offsets are committed, so each event
is shown once per group. --tail reads without a group and commits nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if !cfg.KafkaEnabled() {
				return NewExitError(ExitCommandError, "event publishing is disabled, set KAFKA_BROKERS")
			}

			groupID := group
			if groupID == "" {
				groupID = cfg.Kafka.ConsumerGroup
			}
			if tail {
				groupID = ""
			}

			consumer := opts.NewConsumer(log, &cfg.Kafka, groupID)
			defer func() {
				if err := consumer.Close(); err != nil {
					log.Error("Failed to close consumer", "error", err)
				}
			}()

			ctx, cancel := context.WithCancel(commandContext(cmd))
			defer cancel()

			out := formatter(cmd, opts)
			seen := 0
			return consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
				var event entry.SyncEvent
				if err := json.Unmarshal(value, &event); err != nil {
					log.Warn("Skipping undecodable sync event", "key", string(key), "error", err)
					return nil
				}

				text := fmt.Sprintf("%s  entry=%d  %s  attempts=%d", event.OccurredAt.Format("2006-01-02 15:04:05"), event.EntryID, event.Outcome, event.Attempts)
				if event.Error != "" {
					text += "  error=" + event.Error
				}
				if err := out.Success(event, text); err != nil {
					return err
				}

				seen++
				if limit > 0 && seen >= limit {
					cancel()
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "consumer group (defaults to KAFKA_CONSUMER_GROUP)")
	cmd.Flags().BoolVar(&tail, "tail", false, "read without a consumer group")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many events (0 = until interrupted)")

	return cmd
}
