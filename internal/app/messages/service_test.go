package messages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miguelbaldi/kafka-browser/internal/app/tasks"
	"github.com/miguelbaldi/kafka-browser/internal/config"
	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/infrastructure/store"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

func newTestService(t *testing.T, kafkaRepo *fakeKafkaRepository) (*Service, *store.Store) {
	t.Helper()
	db := openStore(t)
	settings := config.DefaultSettings()
	settings.ConsumerThreads = 2
	settings.ConnectionTimeout = 500 * time.Millisecond
	manager := tasks.NewManager(logger.Nop())
	return NewService(kafkaRepo, db, db, manager, settings, logger.Nop()), db
}

func awaitResponse(t *testing.T, service *Service) domain.MessagesResponse {
	t.Helper()
	select {
	case response := <-service.Responses():
		return response
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for response")
		return domain.MessagesResponse{}
	}
}

func testConnection() domain.Connection {
	return domain.Connection{ID: 1, Name: "local", BrokersList: "localhost:9092"}
}

func TestGetMessagesCachedPopulatesAndServesFirstPage(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 3}, {ID: 1, OffsetLow: 0, OffsetHigh: 2}},
		map[int32][]domain.Message{
			0: topicRecords("orders", 0, 0, "a", "b", "c"),
			1: topicRecords("orders", 1, 0, "d", "e"),
		},
	)
	service, db := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   3,
		Fetch:      domain.FetchModeAll,
	})
	response := awaitResponse(t, service)

	require.NoError(t, response.Err)
	assert.Equal(t, int64(5), response.Total)
	require.Len(t, response.Messages, 3)
	assert.Equal(t, int64(2), response.TotalPages())
	require.NotNil(t, response.FirstAnchor)
	require.NotNil(t, response.LastAnchor)
	assert.Equal(t, domain.Anchor{Partition: 0, Offset: 0}, *response.FirstAnchor)
	assert.Equal(t, domain.Anchor{Partition: 0, Offset: 2}, *response.LastAnchor)

	// First cached read creates the cache settings row and stamps the topic.
	cache, err := db.FindTopicCache(context.Background(), 1, "orders")
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.Equal(t, domain.FetchModeAll, cache.FetchMode)
	require.NotNil(t, response.Topic)
	assert.NotNil(t, response.Topic.CachedAt)
}

func TestGetMessagesCachedSecondPageFromAnchor(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 5}},
		map[int32][]domain.Message{0: topicRecords("orders", 0, 0, "a", "b", "c", "d", "e")},
	)
	service, _ := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   2,
		Fetch:      domain.FetchModeAll,
	})
	first := awaitResponse(t, service)
	require.NoError(t, first.Err)
	require.NotNil(t, first.LastAnchor)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   2,
		Anchor:     first.LastAnchor,
		Fetch:      domain.FetchModeAll,
	})
	second := awaitResponse(t, service)
	require.NoError(t, second.Err)
	require.Len(t, second.Messages, 2)
	assert.Equal(t, "c", second.Messages[0].Value)
	assert.Equal(t, "d", second.Messages[1].Value)

	// Prev from the second page's first anchor returns the first page again.
	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PagePrev,
		PageSize:   2,
		Anchor:     second.FirstAnchor,
		Fetch:      domain.FetchModeAll,
	})
	back := awaitResponse(t, service)
	require.NoError(t, back.Err)
	require.Len(t, back.Messages, 2)
	assert.Equal(t, "a", back.Messages[0].Value)
	assert.Equal(t, "b", back.Messages[1].Value)
}

func TestGetMessagesCachedRefreshFetchesOnlyNewRecords(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 3}},
		map[int32][]domain.Message{0: topicRecords("orders", 0, 0, "a", "b", "c")},
	)
	service, _ := newTestService(t, kafkaRepo)

	request := &domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Fetch:      domain.FetchModeAll,
	}
	service.GetMessages(request)
	first := awaitResponse(t, service)
	require.NoError(t, first.Err)
	require.Equal(t, int64(3), first.Total)

	// Two records appended since the first populate.
	kafkaRepo.mu.Lock()
	kafkaRepo.partitions[0].OffsetHigh = 5
	kafkaRepo.records[0] = append(kafkaRepo.records[0], topicRecords("orders", 0, 3, "d", "e")...)
	kafkaRepo.mu.Unlock()

	refresh := *request
	refresh.Refresh = true
	service.GetMessages(&refresh)
	second := awaitResponse(t, service)
	require.NoError(t, second.Err)
	assert.Equal(t, int64(5), second.Total)

	// Refresh with no new records stays at five: no duplicates.
	service.GetMessages(&refresh)
	third := awaitResponse(t, service)
	require.NoError(t, third.Err)
	assert.Equal(t, int64(5), third.Total)
}

func TestGetMessagesCachedSearchFiltersByValue(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 4}},
		map[int32][]domain.Message{
			0: topicRecords("orders", 0, 0, "alpha", "beta", "alphabet", "gamma"),
		},
	)
	service, _ := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Search:     "alpha",
		Fetch:      domain.FetchModeAll,
	})
	response := awaitResponse(t, service)

	require.NoError(t, response.Err)
	assert.Equal(t, int64(2), response.Total)
	require.Len(t, response.Messages, 2)
	assert.Equal(t, "alpha", response.Messages[0].Value)
	assert.Equal(t, "alphabet", response.Messages[1].Value)
}

func TestGetMessagesLiveReadsWithoutPersisting(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 4}},
		map[int32][]domain.Message{0: topicRecords("orders", 0, 0, "a", "b", "c", "d")},
	)
	service, db := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:        domain.MessagesModeLive,
		Connection:  testConnection(),
		Topic:       domain.Topic{Name: "orders"},
		PageSize:    10,
		Fetch:       domain.FetchModeNewest,
		MaxMessages: 2,
	})
	response := awaitResponse(t, service)

	require.NoError(t, response.Err)
	assert.Equal(t, int64(2), response.Total)
	require.Len(t, response.Messages, 2)
	assert.Equal(t, "c", response.Messages[0].Value)
	assert.Equal(t, "d", response.Messages[1].Value)

	count, err := db.CountMessages(context.Background(), 1, "orders", "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGetMessagesLiveFromTimestamp(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 5}},
		map[int32][]domain.Message{0: topicRecords("orders", 0, 0, "a", "b", "c", "d", "e")},
	)
	kafkaRepo.offsetsFor = map[int32]int64{0: 3}
	service, _ := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeLive,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageSize:   10,
		Fetch:      domain.FetchModeFromTimestamp,
		FetchValue: 1700000000003,
	})
	response := awaitResponse(t, service)

	require.NoError(t, response.Err)
	assert.Equal(t, int64(2), response.Total)
	require.Len(t, response.Messages, 2)
	assert.Equal(t, int64(3), response.Messages[0].Offset)
}

func TestGetMessagesRejectsInvalidConnection(t *testing.T) {
	service, _ := newTestService(t, newFakeKafka(nil, nil))

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: domain.Connection{ID: 1, Name: "broken"},
		Topic:      domain.Topic{Name: "orders"},
		PageSize:   10,
	})
	response := awaitResponse(t, service)
	require.Error(t, response.Err)
}

func TestApplyCacheSettingsWipesCachedRows(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 3}},
		map[int32][]domain.Message{0: topicRecords("orders", 0, 0, "a", "b", "c")},
	)
	service, db := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Fetch:      domain.FetchModeAll,
	})
	require.NoError(t, awaitResponse(t, service).Err)

	err := service.ApplyCacheSettings(context.Background(), &domain.TopicCacheSettings{
		ConnectionID: 1,
		TopicName:    "orders",
		FetchMode:    domain.FetchModeNewest,
		FetchValue:   100,
	})
	require.NoError(t, err)

	count, err := db.CountMessages(context.Background(), 1, "orders", "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	cache, err := db.FindTopicCache(context.Background(), 1, "orders")
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.Equal(t, domain.FetchModeNewest, cache.FetchMode)
}

func TestGetMessagesCachedAfterApplySettingsRepopulates(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 5}},
		map[int32][]domain.Message{0: topicRecords("orders", 0, 0, "a", "b", "c", "d", "e")},
	)
	service, db := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Fetch:      domain.FetchModeAll,
	})
	first := awaitResponse(t, service)
	require.NoError(t, first.Err)
	require.Equal(t, int64(5), first.Total)

	err := service.ApplyCacheSettings(context.Background(), &domain.TopicCacheSettings{
		ConnectionID: 1,
		TopicName:    "orders",
		FetchMode:    domain.FetchModeNewest,
		FetchValue:   2,
	})
	require.NoError(t, err)

	// The next cached read repopulates under the stored policy, not the
	// request's fetch settings.
	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Fetch:      domain.FetchModeAll,
	})
	second := awaitResponse(t, service)
	require.NoError(t, second.Err)
	assert.Equal(t, int64(2), second.Total)
	require.Len(t, second.Messages, 2)
	assert.Equal(t, "d", second.Messages[0].Value)
	assert.Equal(t, "e", second.Messages[1].Value)

	cache, err := db.FindTopicCache(context.Background(), 1, "orders")
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.Equal(t, domain.FetchModeNewest, cache.FetchMode)
	assert.Positive(t, cache.LastUpdated)
}

func TestGetMessagesCachedRefreshOnEmptyCacheAppliesStoredPolicy(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 0}},
		map[int32][]domain.Message{},
	)
	service, _ := newTestService(t, kafkaRepo)

	// First cached read on an empty topic records the policy but caches
	// no rows.
	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Fetch:      domain.FetchModeNewest,
		FetchValue: 2,
	})
	first := awaitResponse(t, service)
	require.NoError(t, first.Err)
	require.Equal(t, int64(0), first.Total)

	kafkaRepo.mu.Lock()
	kafkaRepo.partitions[0].OffsetHigh = 5
	kafkaRepo.records[0] = topicRecords("orders", 0, 0, "a", "b", "c", "d", "e")
	kafkaRepo.mu.Unlock()

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Refresh:    true,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Fetch:      domain.FetchModeNewest,
		FetchValue: 2,
	})
	second := awaitResponse(t, service)
	require.NoError(t, second.Err)
	assert.Equal(t, int64(2), second.Total)
	require.Len(t, second.Messages, 2)
	assert.Equal(t, int64(3), second.Messages[0].Offset)
	assert.Equal(t, int64(4), second.Messages[1].Offset)
}

func TestCleanupCacheRemovesRowsAndSettings(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{{ID: 0, OffsetLow: 0, OffsetHigh: 3}},
		map[int32][]domain.Message{0: topicRecords("orders", 0, 0, "a", "b", "c")},
	)
	service, db := newTestService(t, kafkaRepo)

	service.GetMessages(&domain.MessagesRequest{
		Mode:       domain.MessagesModeCached,
		Connection: testConnection(),
		Topic:      domain.Topic{Name: "orders"},
		PageOp:     domain.PageNext,
		PageSize:   10,
		Fetch:      domain.FetchModeAll,
	})
	require.NoError(t, awaitResponse(t, service).Err)

	topic, err := service.CleanupCache(context.Background(), 1, "orders")
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Nil(t, topic.CachedAt)

	count, err := db.CountMessages(context.Background(), 1, "orders", "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	cache, err := db.FindTopicCache(context.Background(), 1, "orders")
	require.NoError(t, err)
	assert.Nil(t, cache)
}

func TestCountMessagesSumsPartitionWindows(t *testing.T) {
	kafkaRepo := newFakeKafka(
		[]domain.Partition{
			{ID: 0, OffsetLow: 10, OffsetHigh: 100},
			{ID: 1, OffsetLow: 0, OffsetHigh: 60},
		},
		nil,
	)
	service, _ := newTestService(t, kafkaRepo)

	conn := testConnection()
	total, err := service.CountMessages(context.Background(), &conn, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
}
