// Package store implements the local message cache and metadata repository
// on SQLite. The store is opened once per logical operation owner; writes
// serialize on SQLite's own locking, bounded by the busy timeout.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/miguelbaldi/kafka-browser/internal/repository"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
	"github.com/miguelbaldi/kafka-browser/pkg/metrics"
)

// Store implements MessageStore, TopicStore and ConnectionStore on one
// SQLite database.
type Store struct {
	db     *gorm.DB
	logger logger.Logger
}

var (
	_ repository.MessageStore    = (*Store)(nil)
	_ repository.TopicStore      = (*Store)(nil)
	_ repository.ConnectionStore = (*Store)(nil)
)

// Open opens (creating when absent) the database file and migrates the
// schema.
func Open(path string, log logger.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&connectionRow{}, &topicRow{}, &topicCacheRow{}, &messageRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOperations.WithLabelValues(operation, status).Inc()
}
