package usecase

import (
	"context"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// MessagesUseCase defines the page-serving and cache-management operations
// the presentation layer drives.
type MessagesUseCase interface {
	// GetMessages schedules one page request and returns its task handle.
	// The response is delivered asynchronously on the Responses channel.
	GetMessages(request *domain.MessagesRequest) domain.Task

	// Responses delivers completed page requests. The presentation layer
	// consumes this channel; it must never block the engine.
	Responses() <-chan domain.MessagesResponse

	// ApplyCacheSettings stores a new cache policy for a topic and wipes
	// any previously cached rows
	ApplyCacheSettings(ctx context.Context, settings *domain.TopicCacheSettings) error

	// CleanupCache destroys the cached rows and the cache settings row for
	// a topic, returning the refreshed topic metadata when it exists
	CleanupCache(ctx context.Context, connectionID uint, topicName string) (*domain.Topic, error)

	// CountMessages counts the messages currently available on the broker
	// for a topic
	CountMessages(ctx context.Context, conn *domain.Connection, topicName string) (int64, error)
}
