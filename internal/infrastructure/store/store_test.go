package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedMessages writes count sequential messages into one partition.
func seedMessages(t *testing.T, s *Store, connectionID uint, topic string, partition int32, lowOffset, count int64) {
	t.Helper()
	ctx := context.Background()
	for i := int64(0); i < count; i++ {
		err := s.SaveMessage(ctx, &domain.Message{
			ConnectionID: connectionID,
			Topic:        topic,
			Partition:    partition,
			Offset:       lowOffset + i,
			Key:          fmt.Sprintf("key-%d", lowOffset+i),
			Value:        fmt.Sprintf("value-%d-%d", partition, lowOffset+i),
			Timestamp:    1700000000000 + i,
			Headers:      []domain.Header{{Key: "source", Value: "test"}},
		})
		require.NoError(t, err)
	}
}
