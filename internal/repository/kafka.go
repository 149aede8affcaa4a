package repository

import (
	"context"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// KafkaRepository defines operations for interacting with Kafka. Every
// consumer/producer/admin is constructed per operation and scoped to the
// lifetime of the task that uses it; there is no shared mutable client state.
type KafkaRepository interface {
	// CreateConsumer creates a consumer for one fetch or populate operation
	CreateConsumer(ctx context.Context, conn *domain.Connection, config ConsumerConfig) (Consumer, error)

	// CreateProducer creates a producer for one send operation
	CreateProducer(ctx context.Context, conn *domain.Connection) (Producer, error)

	// CreateAdmin creates an admin client for metadata and watermark queries
	CreateAdmin(ctx context.Context, conn *domain.Connection) (Admin, error)

	// HealthCheck verifies broker connectivity
	HealthCheck(ctx context.Context, conn *domain.Connection) error
}

// PartitionOffset is one explicit partition assignment for a consumer.
type PartitionOffset struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Consumer defines operations for streaming records
type Consumer interface {
	// Assign starts consuming the given partitions at explicit offsets
	Assign(assignments []PartitionOffset) error

	// Subscribe starts consuming whole topics, honoring the configured
	// auto-offset-reset policy
	Subscribe(topics []string) error

	// Poll blocks until the next record, a broker error, or ctx is done.
	// A broker error is returned without consuming the stream; callers may
	// log it and keep polling.
	Poll(ctx context.Context) (*domain.Message, error)

	// Close closes the consumer
	Close() error
}

// Producer defines operations for sending messages
type Producer interface {
	// Send delivers one message and waits for the broker acknowledgement
	Send(ctx context.Context, topic string, message *domain.Message) error

	// Close closes the producer
	Close() error
}

// Admin defines metadata operations
type Admin interface {
	// ListTopics lists all topics with their partition ids
	ListTopics(ctx context.Context) ([]*domain.Topic, error)

	// FetchPartitions returns the partitions of a topic with low/high
	// watermarks. A partition whose watermark query failed carries the
	// OffsetUnknown sentinel; an absent topic yields an empty list, not an
	// error.
	FetchPartitions(ctx context.Context, topic string) ([]domain.Partition, error)

	// OffsetForTimestamp resolves the first offset at or after the given
	// epoch-millisecond timestamp for one partition
	OffsetForTimestamp(ctx context.Context, topic string, partition int32, timestampMs int64) (int64, error)

	// CreateTopic creates a new topic
	CreateTopic(ctx context.Context, name string, partitions int32, replicationFactor int16) error

	// DeleteTopic deletes a topic
	DeleteTopic(ctx context.Context, name string) error

	// Close closes the admin client
	Close() error
}

// StartOffset is the auto-offset-reset policy applied when a consumer
// subscribes without explicit offsets.
type StartOffset string

const (
	StartOffsetEarliest StartOffset = "earliest"
	StartOffsetLatest   StartOffset = "latest"
)

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	GroupID     string
	StartOffset StartOffset
}
