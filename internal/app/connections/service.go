// Package connections manages the saved broker connection registry.
package connections

import (
	"context"

	"github.com/miguelbaldi/kafka-browser/internal/config"
	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	"github.com/miguelbaldi/kafka-browser/internal/usecase"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

// Service implements the connection use case.
type Service struct {
	kafkaRepo   repository.KafkaRepository
	connections repository.ConnectionStore
	validator   *config.Validator
	logger      logger.Logger
}

var _ usecase.ConnectionUseCase = (*Service)(nil)

func NewService(kafkaRepo repository.KafkaRepository, store repository.ConnectionStore, log logger.Logger) *Service {
	return &Service{
		kafkaRepo:   kafkaRepo,
		connections: store,
		validator:   config.NewValidator(),
		logger:      log.WithFields(map[string]any{"component": "connections"}),
	}
}

func (s *Service) ListConnections(ctx context.Context) ([]domain.Connection, error) {
	return s.connections.ListConnections(ctx)
}

func (s *Service) SaveConnection(ctx context.Context, conn *domain.Connection) (*domain.Connection, error) {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return nil, err
	}
	saved, err := s.connections.SaveConnection(ctx, conn)
	if err != nil {
		return nil, err
	}
	s.logger.Info("connection saved", "name", saved.Name, "id", saved.ID)
	return saved, nil
}

func (s *Service) GetConnection(ctx context.Context, id uint) (*domain.Connection, error) {
	return s.connections.FindConnection(ctx, id)
}

// TestConnection checks that the brokers answer before the connection is
// used or saved.
func (s *Service) TestConnection(ctx context.Context, conn *domain.Connection) error {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return err
	}
	return s.kafkaRepo.HealthCheck(ctx, conn)
}
