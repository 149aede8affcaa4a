// Package messages implements the message-pagination and local-cache
// engine: fetch-policy windowing, cache population, and live/cached page
// serving.
package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/miguelbaldi/kafka-browser/internal/app/tasks"
	"github.com/miguelbaldi/kafka-browser/internal/config"
	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	"github.com/miguelbaldi/kafka-browser/internal/usecase"
	apperrors "github.com/miguelbaldi/kafka-browser/pkg/errors"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
	"github.com/miguelbaldi/kafka-browser/pkg/metrics"
)

const responseBuffer = 16

// Service implements the messages use case. Each request runs as a
// cancellable task; results are delivered on the response channel so the
// calling goroutine never blocks on broker or store I/O.
type Service struct {
	kafkaRepo repository.KafkaRepository
	messages  repository.MessageStore
	topics    repository.TopicStore
	tasks     *tasks.Manager
	populator *Populator
	validator *config.Validator
	settings  *config.Settings
	logger    logger.Logger

	responses chan domain.MessagesResponse
}

var _ usecase.MessagesUseCase = (*Service)(nil)

func NewService(
	kafkaRepo repository.KafkaRepository,
	messageStore repository.MessageStore,
	topicStore repository.TopicStore,
	taskManager *tasks.Manager,
	settings *config.Settings,
	log logger.Logger,
) *Service {
	return &Service{
		kafkaRepo: kafkaRepo,
		messages:  messageStore,
		topics:    topicStore,
		tasks:     taskManager,
		populator: NewPopulator(kafkaRepo, messageStore, taskManager, log,
			settings.ConsumerThreads, settings.WorkerSeed),
		validator: config.NewValidator(),
		settings:  settings,
		logger:    log.WithFields(map[string]any{"component": "messages"}),
		responses: make(chan domain.MessagesResponse, responseBuffer),
	}
}

// Responses returns the channel on which completed page reads are
// delivered. Cancelled tasks still produce a response so consumers can
// clear their pending state.
func (s *Service) Responses() <-chan domain.MessagesResponse {
	return s.responses
}

// GetMessages schedules an asynchronous page read and returns the task
// handle immediately. The result arrives on Responses.
func (s *Service) GetMessages(request *domain.MessagesRequest) domain.Task {
	task, ctx := s.tasks.Start(context.Background(), domain.TaskGetMessages,
		fmt.Sprintf("messages %s", request.Topic.Name))

	go func() {
		start := time.Now()
		response := s.getMessages(ctx, task, request)
		response.TaskID = task.ID
		response.PageOp = request.PageOp
		response.PageSize = request.PageSize
		response.Search = request.Search
		if response.Topic == nil {
			response.Topic = &request.Topic
		}

		cancelled := ctx.Err() != nil
		if cancelled {
			// A cancelled read still reports what it has; the consumer
			// decides whether to show the partial page.
			s.logger.Info("message read cancelled",
				"task_id", task.ID, "topic", request.Topic.Name)
		}
		s.logger.Debug("message read finished",
			"task_id", task.ID,
			"topic", request.Topic.Name,
			"total", response.Total,
			"duration", time.Since(start).String())

		s.responses <- *response
		s.tasks.Finish(task, cancelled)
	}()

	return task
}

func (s *Service) getMessages(ctx context.Context, task domain.Task, request *domain.MessagesRequest) *domain.MessagesResponse {
	if err := s.validator.ValidateConnection(&request.Connection); err != nil {
		return &domain.MessagesResponse{Err: err}
	}

	switch request.Mode {
	case domain.MessagesModeLive:
		return s.getMessagesLive(ctx, task, request)
	case domain.MessagesModeCached:
		return s.getMessagesCached(ctx, task, request)
	default:
		return &domain.MessagesResponse{
			Err: apperrors.New(apperrors.ErrCodeInvalidArgument,
				fmt.Sprintf("unknown messages mode %q", request.Mode)),
		}
	}
}

func (s *Service) getMessagesLive(ctx context.Context, task domain.Task, request *domain.MessagesRequest) *domain.MessagesResponse {
	metrics.PageReads.WithLabelValues("live").Inc()

	admin, err := s.kafkaRepo.CreateAdmin(ctx, &request.Connection)
	if err != nil {
		return &domain.MessagesResponse{Err: err}
	}
	defer admin.Close()

	windows, total, err := s.resolveWindow(ctx, admin, request.Topic.Name,
		request.Fetch, request.FetchValue, request.MaxMessages, nil)
	if err != nil {
		return &domain.MessagesResponse{Err: err}
	}
	if total == 0 {
		return &domain.MessagesResponse{Messages: []domain.Message{}}
	}

	msgs, err := s.readLive(ctx, task, &request.Connection, request.Topic.Name, windows, total)
	if err != nil {
		return &domain.MessagesResponse{Err: err}
	}
	return &domain.MessagesResponse{
		Total:    int64(len(msgs)),
		Messages: msgs,
	}
}

func (s *Service) getMessagesCached(ctx context.Context, task domain.Task, request *domain.MessagesRequest) *domain.MessagesResponse {
	metrics.PageReads.WithLabelValues("cached").Inc()

	connID := request.Connection.ID
	topicName := request.Topic.Name

	cache, err := s.topics.FindTopicCache(ctx, connID, topicName)
	if err != nil {
		return &domain.MessagesResponse{Err: err}
	}

	switch {
	case cache == nil:
		cache = s.cacheSettingsFromRequest(request)
		if err := s.populateFresh(ctx, task, request, cache); err != nil {
			return &domain.MessagesResponse{Err: err}
		}
	case cache.LastUpdated == 0:
		// Settings applied but rows wiped: repopulate under the stored policy.
		if err := s.populateFresh(ctx, task, request, cache); err != nil {
			return &domain.MessagesResponse{Err: err}
		}
	case request.Refresh:
		if err := s.populateIncremental(ctx, task, request, cache); err != nil {
			return &domain.MessagesResponse{Err: err}
		}
	}
	if ctx.Err() != nil {
		return &domain.MessagesResponse{Messages: []domain.Message{}}
	}

	total, err := s.messages.CountMessages(ctx, connID, topicName, request.Search)
	if err != nil {
		return &domain.MessagesResponse{Err: err}
	}
	page, err := s.messages.FindMessagesPage(ctx, repository.PageQuery{
		ConnectionID: connID,
		Topic:        topicName,
		PageSize:     request.PageSize,
		Operation:    request.PageOp,
		Anchor:       request.Anchor,
		Search:       request.Search,
	})
	if err != nil {
		return &domain.MessagesResponse{Err: err}
	}

	response := &domain.MessagesResponse{
		Total:       total,
		Messages:    page.Messages,
		FirstAnchor: page.First,
		LastAnchor:  page.Last,
	}
	if stored, err := s.topics.FindTopic(ctx, connID, topicName); err == nil && stored != nil {
		response.Topic = stored
	}
	return response
}

// populateFresh runs the first population of a topic cache: compute the
// window from the cache fetch settings, fill the store, then persist the
// cache row and the topic cached-at marker.
func (s *Service) populateFresh(ctx context.Context, task domain.Task, request *domain.MessagesRequest, cache *domain.TopicCacheSettings) error {
	admin, err := s.kafkaRepo.CreateAdmin(ctx, &request.Connection)
	if err != nil {
		return err
	}
	defer admin.Close()

	windows, total, err := s.resolveWindow(ctx, admin, request.Topic.Name,
		cache.FetchMode, cache.FetchValue, cache.FetchValue, nil)
	if err != nil {
		return err
	}
	if total > 0 {
		_, err = s.populator.Populate(ctx, &PopulateRequest{
			Connection: request.Connection,
			Topic:      request.Topic.Name,
			Partitions: windows,
			Target:     total,
			Task:       task,
		})
		if err != nil {
			return err
		}
	}
	return s.recordCached(ctx, request, cache, windows)
}

// populateIncremental resumes from the highest cached offset per
// partition, fetching only records appended since the last run.
func (s *Service) populateIncremental(ctx context.Context, task domain.Task, request *domain.MessagesRequest, cache *domain.TopicCacheSettings) error {
	admin, err := s.kafkaRepo.CreateAdmin(ctx, &request.Connection)
	if err != nil {
		return err
	}
	defer admin.Close()

	prior, err := s.messages.FindCachedOffsets(ctx, request.Connection.ID, request.Topic.Name)
	if err != nil {
		return err
	}

	var (
		windows []domain.Partition
		total   int64
	)
	if len(prior) == 0 {
		// Nothing cached to resume from: apply the stored fetch policy
		// from scratch, including timestamp resolution.
		windows, total, err = s.resolveWindow(ctx, admin, request.Topic.Name,
			cache.FetchMode, cache.FetchValue, cache.FetchValue, nil)
		if err != nil {
			return err
		}
	} else {
		current, err := admin.FetchPartitions(ctx, request.Topic.Name)
		if err != nil {
			return err
		}
		windows, total = ComputeWindow(WindowRequest{
			Partitions: current,
			Mode:       cache.FetchMode,
			Prior:      prior,
		})
	}
	if total > 0 {
		_, err = s.populator.Populate(ctx, &PopulateRequest{
			Connection: request.Connection,
			Topic:      request.Topic.Name,
			Partitions: windows,
			Target:     total,
			Task:       task,
		})
		if err != nil {
			return err
		}
	}
	return s.recordCached(ctx, request, cache, windows)
}

func (s *Service) recordCached(ctx context.Context, request *domain.MessagesRequest, cache *domain.TopicCacheSettings, partitions []domain.Partition) error {
	// Persist even after cancellation so the partial cache stays usable.
	storeCtx := context.WithoutCancel(ctx)

	now := time.Now()
	cache.LastUpdated = now.UnixMilli()
	if err := s.topics.SaveTopicCache(storeCtx, cache); err != nil {
		return err
	}

	topic := request.Topic
	topic.ConnectionID = request.Connection.ID
	topic.Partitions = partitions
	topic.CachedAt = &now
	if stored, err := s.topics.FindTopic(storeCtx, request.Connection.ID, topic.Name); err == nil && stored != nil {
		topic.Favourite = stored.Favourite
	}
	return s.topics.SaveTopic(storeCtx, &topic)
}

func (s *Service) cacheSettingsFromRequest(request *domain.MessagesRequest) *domain.TopicCacheSettings {
	cache := &domain.TopicCacheSettings{
		ConnectionID:    request.Connection.ID,
		TopicName:       request.Topic.Name,
		FetchMode:       request.Fetch,
		FetchValue:      request.FetchValue,
		DefaultPageSize: request.PageSize,
	}
	if !cache.FetchMode.Valid() {
		cache.FetchMode = domain.FetchModeAll
	}
	if cache.DefaultPageSize <= 0 {
		cache.DefaultPageSize = s.settings.DefaultPageSize
	}
	return cache
}

// resolveWindow fetches the current watermarks and applies the fetch
// policy. For timestamp fetches the per-partition start offset is looked
// up on the broker before windowing.
func (s *Service) resolveWindow(
	ctx context.Context,
	admin repository.Admin,
	topicName string,
	mode domain.FetchMode,
	fetchValue int64,
	maxMessages int64,
	prior []domain.Partition,
) ([]domain.Partition, int64, error) {
	partitions, err := admin.FetchPartitions(ctx, topicName)
	if err != nil {
		return nil, 0, err
	}

	if mode == domain.FetchModeFromTimestamp && len(prior) == 0 {
		for i, partition := range partitions {
			if !partition.Known() {
				continue
			}
			offset, err := admin.OffsetForTimestamp(ctx, topicName, partition.ID, fetchValue)
			if err != nil {
				s.logger.Warn("offset-for-timestamp lookup failed, keeping low watermark",
					"topic", topicName, "partition", partition.ID, "error", err)
				continue
			}
			if offset < partition.OffsetLow {
				offset = partition.OffsetLow
			}
			if offset > partition.OffsetHigh {
				offset = partition.OffsetHigh
			}
			partitions[i].OffsetLow = offset
		}
		// Timestamp resolution already fixed the window start.
		mode = domain.FetchModeAll
	}

	windows, total := ComputeWindow(WindowRequest{
		Partitions:  partitions,
		Mode:        mode,
		MaxMessages: maxMessages,
		Prior:       prior,
	})
	return windows, total, nil
}

// ApplyCacheSettings stores new fetch settings for a topic and drops the
// rows cached under the previous ones. The next cached read repopulates
// from scratch.
func (s *Service) ApplyCacheSettings(ctx context.Context, settings *domain.TopicCacheSettings) error {
	if !settings.FetchMode.Valid() {
		return apperrors.New(apperrors.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown fetch mode %q", settings.FetchMode))
	}
	settings.LastUpdated = 0

	removed, err := s.messages.DeleteAllMessages(ctx, settings.ConnectionID, settings.TopicName)
	if err != nil {
		return err
	}
	s.logger.Info("cache settings applied",
		"topic", settings.TopicName,
		"fetch_mode", string(settings.FetchMode),
		"removed", removed)
	return s.topics.SaveTopicCache(ctx, settings)
}

// CleanupCache removes all cached rows and the cache settings for a topic
// and returns the refreshed topic metadata.
func (s *Service) CleanupCache(ctx context.Context, connectionID uint, topicName string) (*domain.Topic, error) {
	removed, err := s.messages.DeleteAllMessages(ctx, connectionID, topicName)
	if err != nil {
		return nil, err
	}
	if err := s.topics.DeleteTopicCache(ctx, connectionID, topicName); err != nil {
		return nil, err
	}
	s.logger.Info("topic cache removed", "topic", topicName, "removed", removed)

	topic, err := s.topics.FindTopic(ctx, connectionID, topicName)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		topic = &domain.Topic{ConnectionID: connectionID, Name: topicName}
	}
	topic.CachedAt = nil
	topic.Total = 0
	if err := s.topics.SaveTopic(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// CountMessages reports how many records the topic currently holds on the
// broker, summed across partitions.
func (s *Service) CountMessages(ctx context.Context, conn *domain.Connection, topicName string) (int64, error) {
	if err := s.validator.ValidateConnection(conn); err != nil {
		return 0, err
	}
	admin, err := s.kafkaRepo.CreateAdmin(ctx, conn)
	if err != nil {
		return 0, err
	}
	defer admin.Close()

	_, total, err := s.resolveWindow(ctx, admin, topicName, domain.FetchModeAll, 0, 0, nil)
	return total, err
}
