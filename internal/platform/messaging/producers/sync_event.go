package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

// SyncEventProducer publishes sync attempt outcomes so other tools can follow the queue
type SyncEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewSyncEventProducer ensures the events topic exists and returns an async producer
func NewSyncEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*SyncEventProducer, error) {
	if cfg.SyncEventsTopic == "" {
		return nil, fmt.Errorf("kafka sync events topic is not configured")
	}

	if err := ensureTopic(cfg, cfg.SyncEventsTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure sync events topic %s exists: %w", cfg.SyncEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.SyncEventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Sync must never wait on the event bus
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write sync events asynchronously", "topic", cfg.SyncEventsTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Wrote sync events asynchronously", "topic", cfg.SyncEventsTopic, "count", len(messages))
			}
		},
	}

	return &SyncEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.SyncEventsTopic,
	}, nil
}

func (p *SyncEventProducer) PublishSyncEvent(ctx context.Context, event *entry.SyncEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}

	msg := kafka.Message{
		Key:   entryKey(event.EntryID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish sync event",
			"topic", p.topic,
			"entry_id", event.EntryID,
			"outcome", event.Outcome,
			"error", err,
		)
		return fmt.Errorf("failed to publish sync event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published sync event",
		"topic", p.topic,
		"entry_id", event.EntryID,
		"outcome", event.Outcome,
	)
	return nil
}

func (p *SyncEventProducer) Close() error {
	p.logger.Info("Closing sync event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close sync event writer for topic %s: %w", p.topic, err)
	}
	return nil
}
