package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

const (
	topicProbeAttempts = 5
	topicProbeInterval = 2 * time.Second
)

// partitionReader is the part of *kafka.Conn used to probe and create topics
type partitionReader interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// createKafkaTopicIfNotExists creates the topic when its partitions cannot be read
func createKafkaTopicIfNotExists(conn partitionReader, topicName string, numPartitions int, replicationFactor int, log *slog.Logger) error {
	return ensureTopic(conn, topicName, numPartitions, replicationFactor, log,
		backoff.WithMaxRetries(backoff.NewConstantBackOff(topicProbeInterval), topicProbeAttempts-1))
}

func ensureTopic(conn partitionReader, topicName string, numPartitions, replicationFactor int, log *slog.Logger, probe backoff.BackOff) error {
	var partitions []kafka.Partition

	log.Info("Checking if Kafka topic exists", "topic", topicName)
	err := backoff.RetryNotify(func() error {
		var readErr error
		partitions, readErr = conn.ReadPartitions(topicName)
		return readErr
	}, probe, func(err error, wait time.Duration) {
		log.Warn("Failed to read partitions, retrying", "topic", topicName, "wait", wait, "error", err)
	})

	if len(partitions) > 0 {
		log.Info("Kafka topic already exists", "topic", topicName, "partitions", len(partitions))
		return nil
	}

	log.Info("Kafka topic does not exist or is not accessible, creating it", "topic", topicName, "last_read_error", err)
	topicConfig := kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}
	if topicConfig.NumPartitions <= 0 {
		topicConfig.NumPartitions = 1
	}
	if topicConfig.ReplicationFactor <= 0 {
		topicConfig.ReplicationFactor = 1
	}

	if err := conn.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, err)
	}
	log.Info("Successfully created Kafka topic", "topic", topicName)
	return nil
}
