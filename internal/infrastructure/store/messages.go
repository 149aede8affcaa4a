package store

import (
	"context"
	"fmt"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	apperrors "github.com/miguelbaldi/kafka-browser/pkg/errors"
	"gorm.io/gorm"
)

// Cached pages are served in ascending (partition, offset) order: offsets
// are only meaningful within one partition, so the page sequence groups by
// partition and the anchors are partition-qualified.
const (
	orderAscending  = `"partition" ASC, "offset" ASC`
	orderDescending = `"partition" DESC, "offset" DESC`
)

// SaveMessage appends one message to the cache. The composite primary key
// rejects duplicate offsets.
func (s *Store) SaveMessage(ctx context.Context, message *domain.Message) error {
	row, err := newMessageRow(message)
	if err != nil {
		observe("save_message", err)
		return apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to encode message headers")
	}

	err = s.db.WithContext(ctx).Create(row).Error
	observe("save_message", err)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabase,
			fmt.Sprintf("failed to save message %s/%d@%d", message.Topic, message.Partition, message.Offset))
	}
	return nil
}

// CountMessages counts the cached rows for a topic, honoring the optional
// substring filter over the value.
func (s *Store) CountMessages(ctx context.Context, connectionID uint, topic, search string) (int64, error) {
	var count int64
	err := s.filtered(ctx, connectionID, topic, search).Count(&count).Error
	observe("count_messages", err)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to count messages")
	}
	return count, nil
}

// FindMessagesPage serves one anchored page. The anchor is an exclusive
// bound: Next returns rows strictly after it, Prev strictly before it, both
// in the stable (partition, offset) order.
func (s *Store) FindMessagesPage(ctx context.Context, query repository.PageQuery) (*repository.MessagePage, error) {
	q := s.filtered(ctx, query.ConnectionID, query.Topic, query.Search)

	switch query.Operation {
	case domain.PagePrev:
		if query.Anchor != nil {
			q = q.Where(`("partition" < ?) OR ("partition" = ? AND "offset" < ?)`,
				query.Anchor.Partition, query.Anchor.Partition, query.Anchor.Offset)
		}
		q = q.Order(orderDescending)
	default:
		if query.Anchor != nil {
			q = q.Where(`("partition" > ?) OR ("partition" = ? AND "offset" > ?)`,
				query.Anchor.Partition, query.Anchor.Partition, query.Anchor.Offset)
		}
		q = q.Order(orderAscending)
	}

	var rows []messageRow
	err := q.Limit(query.PageSize).Find(&rows).Error
	observe("find_messages_page", err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to query message page")
	}

	if query.Operation == domain.PagePrev {
		reverse(rows)
	}

	page := &repository.MessagePage{
		Messages: make([]domain.Message, len(rows)),
	}
	for i := range rows {
		page.Messages[i] = rows[i].toDomain()
	}
	if len(rows) > 0 {
		first, last := rows[0], rows[len(rows)-1]
		page.First = &domain.Anchor{Partition: first.Partition, Offset: first.Offset}
		page.Last = &domain.Anchor{Partition: last.Partition, Offset: last.Offset}
	}
	return page, nil
}

// FindCachedOffsets returns the cached offset window per partition: lowest
// cached offset and one past the highest. The high bound is the resume point
// for an incremental refresh.
func (s *Store) FindCachedOffsets(ctx context.Context, connectionID uint, topic string) ([]domain.Partition, error) {
	type aggregate struct {
		ID   int32
		Low  int64
		High int64
	}
	// Group takes a bare identifier: gorm quotes it itself, and a
	// pre-quoted name would be quoted twice.
	var aggs []aggregate
	err := s.db.WithContext(ctx).
		Model(&messageRow{}).
		Select(`"partition" AS id, MIN("offset") AS low, MAX("offset") + 1 AS high`).
		Where("connection_id = ? AND topic = ?", connectionID, topic).
		Group("partition").
		Order(`"partition" ASC`).
		Scan(&aggs).Error
	observe("find_cached_offsets", err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to query cached offsets")
	}

	partitions := make([]domain.Partition, len(aggs))
	for i, a := range aggs {
		partitions[i] = domain.Partition{ID: a.ID, OffsetLow: a.Low, OffsetHigh: a.High}
	}
	return partitions, nil
}

// DeleteAllMessages wipes the cached rows for a topic.
func (s *Store) DeleteAllMessages(ctx context.Context, connectionID uint, topic string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("connection_id = ? AND topic = ?", connectionID, topic).
		Delete(&messageRow{})
	observe("delete_all_messages", result.Error)
	if result.Error != nil {
		return 0, apperrors.Wrap(result.Error, apperrors.ErrCodeDatabase, "failed to delete cached messages")
	}
	return result.RowsAffected, nil
}

func (s *Store) filtered(ctx context.Context, connectionID uint, topic, search string) *gorm.DB {
	q := s.db.WithContext(ctx).
		Model(&messageRow{}).
		Where("connection_id = ? AND topic = ?", connectionID, topic)
	if search != "" {
		q = q.Where(`value LIKE ? ESCAPE '\'`, "%"+escapeLike(search)+"%")
	}
	return q
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func reverse(rows []messageRow) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
