package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fahrtenbuch-logbook/internal/config"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Consume(ctx context.Context, handler MessageHandler) error
	Close() error
}

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka
type KafkaConsumer struct {
	reader       KafkaReader
	logger       *slog.Logger
	topic        string
	groupID      string
	retryBackoff time.Duration
}

// NewSyncEventConsumer reads the sync events topic. An empty groupID reads without
// committing offsets, which suits one-off tailing from the CLI.
func NewSyncEventConsumer(logger *slog.Logger, cfg *config.KafkaConfig, groupID string) *KafkaConsumer {
	readerCfg := kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.SyncEventsTopic,
		GroupID:  groupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
	}
	if groupID != "" {
		readerCfg.StartOffset = kafka.FirstOffset
	}

	return &KafkaConsumer{
		logger:       logger,
		reader:       kafka.NewReader(readerCfg),
		topic:        cfg.SyncEventsTopic,
		groupID:      groupID,
		retryBackoff: time.Second,
	}
}

// Consume fetches messages until ctx is canceled, committing each one the handler accepted.
// Failed messages are not committed so a later run sees them again.
func (c *KafkaConsumer) Consume(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Consuming Kafka topic",
		"topic", c.topic,
		"group_id", c.groupID,
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Context canceled, stopping consumer", "topic", c.topic)
				return nil
			}
			c.logger.Error("Failed to fetch message from Kafka",
				"topic", c.topic,
				"group_id", c.groupID,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryBackoff):
			}
			continue
		}

		c.logger.Debug("Received message from Kafka",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Error("Failed to process message, will not commit offset",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
			continue
		}

		if c.groupID == "" {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message after successful processing",
				"topic", msg.Topic,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
