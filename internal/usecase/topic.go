package usecase

import (
	"context"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// TopicUseCase defines topic discovery and administration operations
type TopicUseCase interface {
	// ListTopics lists all topics of a cluster, merged with locally stored
	// metadata (favourite flag, cached timestamp)
	ListTopics(ctx context.Context, conn *domain.Connection) ([]*domain.Topic, error)

	// FetchPartitions returns current partitions with watermarks
	FetchPartitions(ctx context.Context, conn *domain.Connection, topicName string) ([]domain.Partition, error)

	// CreateTopic creates a new topic
	CreateTopic(ctx context.Context, conn *domain.Connection, name string, partitions int32, replicationFactor int16) error

	// DeleteTopic deletes a topic
	DeleteTopic(ctx context.Context, conn *domain.Connection, name string) error

	// SetFavourite toggles the locally stored favourite flag
	SetFavourite(ctx context.Context, connectionID uint, topicName string, favourite bool) error

	// SendMessages produces the given messages to a topic
	SendMessages(ctx context.Context, conn *domain.Connection, topicName string, messages []domain.Message) error
}
