package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	apperrors "github.com/miguelbaldi/kafka-browser/pkg/errors"
)

// FindTopic returns the stored topic metadata, or nil when the topic was
// never stored.
func (s *Store) FindTopic(ctx context.Context, connectionID uint, name string) (*domain.Topic, error) {
	var row topicRow
	err := s.db.WithContext(ctx).
		Where("connection_id = ? AND name = ?", connectionID, name).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observe("find_topic", nil)
		return nil, nil
	}
	observe("find_topic", err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to query topic")
	}
	return row.toDomain(), nil
}

// SaveTopic upserts the favourite flag and cached timestamp of a topic.
func (s *Store) SaveTopic(ctx context.Context, topic *domain.Topic) error {
	row := topicRow{
		ConnectionID: topic.ConnectionID,
		Name:         topic.Name,
		Favourite:    topic.Favourite,
	}
	if topic.CachedAt != nil {
		ms := topic.CachedAt.UnixMilli()
		row.CachedAt = &ms
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	observe("save_topic", err)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to save topic")
	}
	return nil
}

// FindTopicCache returns the cache settings row, or nil when the topic is
// not cached.
func (s *Store) FindTopicCache(ctx context.Context, connectionID uint, name string) (*domain.TopicCacheSettings, error) {
	var row topicCacheRow
	err := s.db.WithContext(ctx).
		Where("connection_id = ? AND topic_name = ?", connectionID, name).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observe("find_topic_cache", nil)
		return nil, nil
	}
	observe("find_topic_cache", err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to query topic cache settings")
	}
	return row.toDomain()
}

// SaveTopicCache upserts the cache settings row for a topic.
func (s *Store) SaveTopicCache(ctx context.Context, settings *domain.TopicCacheSettings) error {
	row := topicCacheRow{
		ConnectionID:    settings.ConnectionID,
		TopicName:       settings.TopicName,
		FetchMode:       string(settings.FetchMode),
		FetchValue:      settings.FetchValue,
		DefaultPageSize: settings.DefaultPageSize,
		LastUpdated:     settings.LastUpdated,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	observe("save_topic_cache", err)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to save topic cache settings")
	}
	return nil
}

// DeleteTopicCache removes the cache settings row for a topic.
func (s *Store) DeleteTopicCache(ctx context.Context, connectionID uint, name string) error {
	err := s.db.WithContext(ctx).
		Where("connection_id = ? AND topic_name = ?", connectionID, name).
		Delete(&topicCacheRow{}).Error
	observe("delete_topic_cache", err)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to delete topic cache settings")
	}
	return nil
}
