// Package topics implements topic discovery and administration against the
// broker, merged with locally stored topic metadata.
package topics

import (
	"context"
	"fmt"

	"github.com/miguelbaldi/kafka-browser/internal/config"
	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	"github.com/miguelbaldi/kafka-browser/internal/usecase"
	apperrors "github.com/miguelbaldi/kafka-browser/pkg/errors"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

// Service implements the topic use case.
type Service struct {
	kafkaRepo repository.KafkaRepository
	topics    repository.TopicStore
	validator *config.Validator
	logger    logger.Logger
}

var _ usecase.TopicUseCase = (*Service)(nil)

func NewService(kafkaRepo repository.KafkaRepository, topicStore repository.TopicStore, log logger.Logger) *Service {
	return &Service{
		kafkaRepo: kafkaRepo,
		topics:    topicStore,
		validator: config.NewValidator(),
		logger:    log.WithFields(map[string]any{"component": "topics"}),
	}
}

// ListTopics lists the cluster's topics, overlaying each with the stored
// favourite flag and cached timestamp when the topic was seen before.
func (s *Service) ListTopics(ctx context.Context, conn *domain.Connection) ([]*domain.Topic, error) {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return nil, err
	}
	admin, err := s.kafkaRepo.CreateAdmin(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	listed, err := admin.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	for _, topic := range listed {
		topic.ConnectionID = conn.ID
		stored, err := s.topics.FindTopic(ctx, conn.ID, topic.Name)
		if err != nil {
			s.logger.Warn("stored topic lookup failed", "topic", topic.Name, "error", err)
			continue
		}
		if stored != nil {
			topic.Favourite = stored.Favourite
			topic.CachedAt = stored.CachedAt
			topic.Total = stored.Total
		}
	}
	s.logger.Debug("listed topics", "connection", conn.Name, "count", len(listed))
	return listed, nil
}

// FetchPartitions returns the topic's partitions with current watermarks.
func (s *Service) FetchPartitions(ctx context.Context, conn *domain.Connection, topicName string) ([]domain.Partition, error) {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return nil, err
	}
	admin, err := s.kafkaRepo.CreateAdmin(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	return admin.FetchPartitions(ctx, topicName)
}

// CreateTopic creates a topic on the cluster.
func (s *Service) CreateTopic(ctx context.Context, conn *domain.Connection, name string, partitions int32, replicationFactor int16) error {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return err
	}
	if err := s.validator.ValidateTopicName(name); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "invalid topic name")
	}
	if partitions < 1 {
		return apperrors.New(apperrors.ErrCodeInvalidArgument,
			fmt.Sprintf("partition count must be positive, got %d", partitions))
	}

	admin, err := s.kafkaRepo.CreateAdmin(ctx, conn)
	if err != nil {
		return err
	}
	defer admin.Close()

	if err := admin.CreateTopic(ctx, name, partitions, replicationFactor); err != nil {
		return err
	}
	s.logger.Info("topic created", "topic", name, "partitions", partitions)
	return nil
}

// DeleteTopic deletes a topic from the cluster. Locally cached rows for it
// are left untouched; cache cleanup is a separate operation.
func (s *Service) DeleteTopic(ctx context.Context, conn *domain.Connection, name string) error {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return err
	}
	admin, err := s.kafkaRepo.CreateAdmin(ctx, conn)
	if err != nil {
		return err
	}
	defer admin.Close()

	if err := admin.DeleteTopic(ctx, name); err != nil {
		return err
	}
	s.logger.Info("topic deleted", "topic", name)
	return nil
}

// SetFavourite toggles the locally stored favourite flag for a topic.
func (s *Service) SetFavourite(ctx context.Context, connectionID uint, topicName string, favourite bool) error {
	topic, err := s.topics.FindTopic(ctx, connectionID, topicName)
	if err != nil {
		return err
	}
	if topic == nil {
		topic = &domain.Topic{ConnectionID: connectionID, Name: topicName}
	}
	topic.Favourite = favourite
	return s.topics.SaveTopic(ctx, topic)
}

// SendMessages produces the given messages to a topic, waiting for the
// broker acknowledgement of each.
func (s *Service) SendMessages(ctx context.Context, conn *domain.Connection, topicName string, messages []domain.Message) error {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	producer, err := s.kafkaRepo.CreateProducer(ctx, conn)
	if err != nil {
		return err
	}
	defer producer.Close()

	for i := range messages {
		if err := producer.Send(ctx, topicName, &messages[i]); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal,
				fmt.Sprintf("failed to send message %d of %d", i+1, len(messages)))
		}
	}
	s.logger.Info("messages sent", "topic", topicName, "count", len(messages))
	return nil
}
