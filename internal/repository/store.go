package repository

import (
	"context"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// PageQuery describes one anchored page read against the cache.
type PageQuery struct {
	ConnectionID uint
	Topic        string
	PageSize     int
	Operation    domain.PageOperation
	// Anchor is the boundary message of the adjacent page, exclusive.
	// Nil means the first page in the given direction.
	Anchor *domain.Anchor
	// Search filters by substring match over the message value.
	Search string
}

// MessagePage is one page of cached messages in ascending
// (partition, offset) order, plus its boundary anchors.
type MessagePage struct {
	Messages []domain.Message
	First    *domain.Anchor
	Last     *domain.Anchor
}

// MessageStore defines operations on the local message cache. Rows are
// append-only: population always follows a bulk delete, single rows are never
// updated.
type MessageStore interface {
	// SaveMessage appends one message to the cache
	SaveMessage(ctx context.Context, message *domain.Message) error

	// CountMessages counts cached rows for a topic, honoring the optional
	// substring filter
	CountMessages(ctx context.Context, connectionID uint, topic, search string) (int64, error)

	// FindMessagesPage serves one anchored page
	FindMessagesPage(ctx context.Context, query PageQuery) (*MessagePage, error)

	// FindCachedOffsets returns, per partition, the window of offsets
	// currently cached: lowest cached offset and one past the highest.
	// Used as the resume point for incremental refresh.
	FindCachedOffsets(ctx context.Context, connectionID uint, topic string) ([]domain.Partition, error)

	// DeleteAllMessages wipes the cache for a topic and reports the number
	// of rows removed
	DeleteAllMessages(ctx context.Context, connectionID uint, topic string) (int64, error)
}

// TopicStore persists per-(connection, topic) metadata and cache settings.
type TopicStore interface {
	// FindTopic returns the stored topic metadata (favourite flag, cached
	// timestamp), or nil when the topic was never stored
	FindTopic(ctx context.Context, connectionID uint, name string) (*domain.Topic, error)

	// SaveTopic upserts topic metadata
	SaveTopic(ctx context.Context, topic *domain.Topic) error

	// FindTopicCache returns the cache settings row, or nil when the topic
	// is not cached
	FindTopicCache(ctx context.Context, connectionID uint, name string) (*domain.TopicCacheSettings, error)

	// SaveTopicCache upserts the cache settings row
	SaveTopicCache(ctx context.Context, settings *domain.TopicCacheSettings) error

	// DeleteTopicCache removes the cache settings row
	DeleteTopicCache(ctx context.Context, connectionID uint, name string) error
}

// ConnectionStore persists saved broker connections.
type ConnectionStore interface {
	// ListConnections returns every saved connection
	ListConnections(ctx context.Context) ([]domain.Connection, error)

	// SaveConnection inserts or updates a connection, matching by id when
	// set, otherwise by name
	SaveConnection(ctx context.Context, conn *domain.Connection) (*domain.Connection, error)

	// FindConnection returns one connection by id
	FindConnection(ctx context.Context, id uint) (*domain.Connection, error)
}
