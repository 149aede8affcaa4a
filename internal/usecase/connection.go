package usecase

import (
	"context"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// ConnectionUseCase manages the saved broker connections.
type ConnectionUseCase interface {
	// ListConnections returns every saved connection
	ListConnections(ctx context.Context) ([]domain.Connection, error)

	// SaveConnection validates and upserts a connection, returning the
	// stored value with its id assigned
	SaveConnection(ctx context.Context, conn *domain.Connection) (*domain.Connection, error)

	// GetConnection returns one connection by id
	GetConnection(ctx context.Context, id uint) (*domain.Connection, error)

	// TestConnection verifies broker connectivity without saving anything
	TestConnection(ctx context.Context, conn *domain.Connection) error
}
