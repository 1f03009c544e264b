package producers

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/fahrtenbuch-logbook/internal/config"
)

// ensureTopic creates topic on the cluster controller when no broker knows it yet.
// Existing topics are left untouched, partition count included.
func ensureTopic(cfg *config.KafkaConfig, topic string, logger *slog.Logger) error {
	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka at %s: %w", cfg.Brokers, err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(topic)
	if err == nil && len(partitions) > 0 {
		logger.Debug("Kafka topic present", "topic", topic, "partitions", len(partitions))
		return nil
	}
	if err != nil && !errors.Is(err, kafka.UnknownTopicOrPartition) {
		return fmt.Errorf("failed to read partitions of %s: %w", topic, err)
	}

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to locate kafka controller: %w", err)
	}
	ctrlConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer ctrlConn.Close()

	spec := topicSpec(cfg, topic)
	if err := ctrlConn.CreateTopics(spec); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}

	logger.Info("Created Kafka topic",
		"topic", topic,
		"partitions", spec.NumPartitions,
		"replication_factor", spec.ReplicationFactor,
	)
	return nil
}

func topicSpec(cfg *config.KafkaConfig, topic string) kafka.TopicConfig {
	return kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     max(cfg.NumPartitions, 1),
		ReplicationFactor: max(cfg.ReplicationFactor, 1),
	}
}

// entryKey pins every message about one entry to the same partition
func entryKey(id int64) []byte {
	return strconv.AppendInt(nil, id, 10)
}
