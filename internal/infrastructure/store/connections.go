package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	apperrors "github.com/miguelbaldi/kafka-browser/pkg/errors"
)

// ListConnections returns every saved connection.
func (s *Store) ListConnections(ctx context.Context) ([]domain.Connection, error) {
	var rows []connectionRow
	err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	observe("list_connections", err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to list connections")
	}

	connections := make([]domain.Connection, len(rows))
	for i := range rows {
		connections[i] = rows[i].toDomain()
	}
	return connections, nil
}

// SaveConnection inserts or updates a connection. An existing row is matched
// by id when set, otherwise by name.
func (s *Store) SaveConnection(ctx context.Context, conn *domain.Connection) (*domain.Connection, error) {
	row := newConnectionRow(conn)

	var existing connectionRow
	q := s.db.WithContext(ctx)
	var err error
	if conn.ID != 0 {
		err = q.Where("id = ?", conn.ID).First(&existing).Error
	} else {
		err = q.Where("name = ?", conn.Name).First(&existing).Error
	}

	switch {
	case err == nil:
		row.ID = existing.ID
		err = s.db.WithContext(ctx).Save(row).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		row.ID = 0
		err = s.db.WithContext(ctx).Create(row).Error
	}
	observe("save_connection", err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to save connection")
	}

	saved := row.toDomain()
	return &saved, nil
}

// FindConnection returns one connection by id.
func (s *Store) FindConnection(ctx context.Context, id uint) (*domain.Connection, error) {
	var row connectionRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observe("find_connection", nil)
		return nil, apperrors.ErrNotFound
	}
	observe("find_connection", err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabase, "failed to query connection")
	}
	conn := row.toDomain()
	return &conn, nil
}
