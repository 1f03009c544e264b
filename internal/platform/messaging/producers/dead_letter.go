package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fahrtenbuch-logbook/internal/config"
	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

var errDLQDisabled = errors.New("DLQ producer not initialized")

// DLQProducer raises an alert for entries that passed the sync attempt threshold.
// The entry itself stays queued locally and is still retried.
type DLQProducer struct {
	logger   *slog.Logger
	writer   KafkaWriter
	dlqTopic string
	now      func() time.Time
}

// stuckEntryReport is the DLQ payload. It repeats the identifying fields next to the
// full entry so the topic can be read without knowing the entry schema.
type stuckEntryReport struct {
	EntryID       int64        `json:"entry_id"`
	Datum         string       `json:"datum"`
	Kategorie     string       `json:"kategorie"`
	Attempts      int          `json:"attempts"`
	LastError     string       `json:"last_error,omitempty"`
	QueuedAt      time.Time    `json:"queued_at"`
	LastAttemptAt *time.Time   `json:"last_attempt_at,omitempty"`
	Reason        string       `json:"reason"`
	ReportedAt    time.Time    `json:"reported_at"`
	Entry         *entry.Entry `json:"entry"`
}

// NewDLQProducer returns nil without error when KAFKA_DLQ_TOPIC is empty
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("Stuck entry alerts disabled, no DLQ topic configured")
		return nil, nil
	}

	if err := ensureTopic(cfg, cfg.DLQTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to prepare DLQ topic %s: %w", cfg.DLQTopic, err)
	}

	// Alerts are rare, so each one is written synchronously and acknowledged by all replicas
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return &DLQProducer{
		logger:   logger,
		writer:   writer,
		dlqTopic: cfg.DLQTopic,
		now:      time.Now,
	}, nil
}

func (p *DLQProducer) PublishStuckEntry(ctx context.Context, e *entry.Entry, reason string) error {
	if p == nil || p.writer == nil {
		return errDLQDisabled
	}

	msg, err := stuckEntryMessage(e, reason, p.clock())
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to raise stuck entry alert",
			"topic", p.dlqTopic,
			"entry_id", e.ID,
			"error", err,
		)
		return fmt.Errorf("failed to report entry %d on %s: %w", e.ID, p.dlqTopic, err)
	}

	p.logger.Warn("Entry reported as stuck",
		"topic", p.dlqTopic,
		"entry_id", e.ID,
		"datum", e.Fields.Datum,
		"attempts", e.SyncAttempts,
		"reason", reason,
	)
	return nil
}

func (p *DLQProducer) clock() time.Time {
	if p.now == nil {
		return time.Now().UTC()
	}
	return p.now().UTC()
}

func stuckEntryMessage(e *entry.Entry, reason string, reportedAt time.Time) (kafka.Message, error) {
	value, err := json.Marshal(stuckEntryReport{
		EntryID:       e.ID,
		Datum:         e.Fields.Datum,
		Kategorie:     e.Fields.Kategorie,
		Attempts:      e.SyncAttempts,
		LastError:     e.LastSyncErr,
		QueuedAt:      e.Timestamp,
		LastAttemptAt: e.LastSyncAt,
		Reason:        reason,
		ReportedAt:    reportedAt,
		Entry:         e,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode stuck entry %d: %w", e.ID, err)
	}

	return kafka.Message{
		Key:   entryKey(e.ID),
		Value: value,
		Time:  reportedAt,
		Headers: []kafka.Header{
			{Key: "dlq-reason", Value: []byte(reason)},
			{Key: "sync-attempts", Value: []byte(strconv.Itoa(e.SyncAttempts))},
		},
	}, nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close DLQ writer for %s: %w", p.dlqTopic, err)
	}
	p.logger.Info("DLQ producer closed", "topic", p.dlqTopic)
	return nil
}
