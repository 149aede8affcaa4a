package messages

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	"github.com/miguelbaldi/kafka-browser/internal/app/tasks"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
	"github.com/miguelbaldi/kafka-browser/pkg/metrics"
	"github.com/miguelbaldi/kafka-browser/pkg/utils"
)

// PopulateRequest describes one cache population run: drain the given
// per-partition offset windows into the store, up to Target messages.
type PopulateRequest struct {
	Connection domain.Connection
	Topic      string
	// Partitions carry the effective [low, high) window per partition as
	// computed by the fetch policy engine.
	Partitions []domain.Partition
	Target     int64
	Task       domain.Task
}

// Populator drains broker topics into the local store. Partitions are
// distributed across a bounded set of consumer workers that fan records into
// a single store writer; a shared counter tracks progress against the
// target. Cancellation is observed at every record receive, so its latency
// is bounded by one broker round-trip.
type Populator struct {
	kafkaRepo repository.KafkaRepository
	store     repository.MessageStore
	tasks     *tasks.Manager
	logger    logger.Logger
	threads   int
	seed      int
}

// NewPopulator creates a cache populator.
func NewPopulator(
	kafkaRepo repository.KafkaRepository,
	store repository.MessageStore,
	taskManager *tasks.Manager,
	log logger.Logger,
	threads int,
	seed int,
) *Populator {
	if threads < 1 {
		threads = 1
	}
	return &Populator{
		kafkaRepo: kafkaRepo,
		store:     store,
		tasks:     taskManager,
		logger:    log,
		threads:   threads,
		seed:      seed,
	}
}

// Populate runs one population and returns its wall-clock duration.
// Cancellation mid-run is a normal outcome: whatever was persisted up to
// that point stays and no error is returned. Individual decode or persist
// failures are logged and skipped.
func (p *Populator) Populate(ctx context.Context, request *PopulateRequest) (time.Duration, error) {
	start := time.Now()
	log := p.logger.WithFields(map[string]any{"topic": request.Topic, "taskID": request.Task.ID})

	windows := make([]domain.Partition, 0, len(request.Partitions))
	for _, partition := range request.Partitions {
		if partition.Count() > 0 {
			windows = append(windows, partition)
		}
	}
	if len(windows) == 0 || request.Target <= 0 {
		log.Info("nothing to cache", "target", request.Target)
		return time.Since(start), nil
	}

	workers := p.threads
	if len(windows) < workers {
		workers = len(windows)
	}
	assignments := make([][]domain.Partition, workers)
	for _, window := range windows {
		worker := utils.ConsistentHash(fmt.Sprintf("%s-%d", request.Topic, window.ID), p.seed, workers)
		assignments[worker] = append(assignments[worker], window)
	}

	log.Info("starting cache population",
		"target", request.Target,
		"partitions", len(windows),
		"workers", workers)

	var received atomic.Int64
	records := make(chan *domain.Message, 32)

	writerDone := make(chan int64, 1)
	go p.writeRecords(ctx, request, records, writerDone)

	var wg sync.WaitGroup
	for id, assigned := range assignments {
		if len(assigned) == 0 {
			continue
		}
		wg.Add(1)
		go func(workerID int, assigned []domain.Partition) {
			defer wg.Done()
			p.consumeWindows(ctx, request, workerID, assigned, &received, records)
		}(id, assigned)
	}
	wg.Wait()
	close(records)
	persisted := <-writerDone

	duration := time.Since(start)
	metrics.CacheDuration.WithLabelValues(request.Topic, "populate").Observe(duration.Seconds())
	log.Info("finished caching messages",
		"persisted", persisted,
		"received", received.Load(),
		"duration", duration)
	return duration, nil
}

// consumeWindows drains one worker's partition windows. The worker owns its
// consumer; nothing is shared across workers but the record channel and the
// received counter.
func (p *Populator) consumeWindows(
	ctx context.Context,
	request *PopulateRequest,
	workerID int,
	windows []domain.Partition,
	received *atomic.Int64,
	records chan<- *domain.Message,
) {
	log := p.logger.WithFields(map[string]any{
		"topic":  request.Topic,
		"worker": workerID,
	})

	consumer, err := p.kafkaRepo.CreateConsumer(ctx, &request.Connection, repository.ConsumerConfig{
		StartOffset: repository.StartOffsetEarliest,
	})
	if err != nil {
		log.Error("failed to create consumer", "error", err)
		return
	}
	defer consumer.Close()

	assignments := make([]repository.PartitionOffset, len(windows))
	highByPartition := make(map[int32]int64, len(windows))
	var remaining int64
	for i, window := range windows {
		assignments[i] = repository.PartitionOffset{
			Topic:     request.Topic,
			Partition: window.ID,
			Offset:    window.OffsetLow,
		}
		highByPartition[window.ID] = window.OffsetHigh
		remaining += window.Count()
	}
	if err := consumer.Assign(assignments); err != nil {
		log.Error("failed to assign partitions", "error", err)
		return
	}

	for remaining > 0 && received.Load() < request.Target {
		message, err := consumer.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker cancelled", "remaining", remaining)
				return
			}
			log.Warn("kafka error while polling", "error", err)
			continue
		}

		high, ok := highByPartition[message.Partition]
		if !ok || message.Offset >= high {
			// Past the window: appended after the watermark snapshot.
			continue
		}

		message.ConnectionID = request.Connection.ID
		select {
		case records <- message:
		case <-ctx.Done():
			return
		}
		remaining--
		received.Add(1)
	}
	log.Debug("worker finished", "received", received.Load())
}

// writeRecords is the single store writer. A failed row is logged and
// skipped; it never aborts the run.
func (p *Populator) writeRecords(
	ctx context.Context,
	request *PopulateRequest,
	records <-chan *domain.Message,
	done chan<- int64,
) {
	// Records already received keep their persistence guarantee on
	// cancellation, so the writer outlives the task context.
	writeCtx := context.WithoutCancel(ctx)
	var persisted int64
	for message := range records {
		if err := p.store.SaveMessage(writeCtx, message); err != nil {
			p.logger.Warn("unable to save message",
				"topic", message.Topic,
				"partition", message.Partition,
				"offset", message.Offset,
				"error", err)
			metrics.CacheMessagesSkipped.WithLabelValues(request.Topic, "persist").Inc()
			continue
		}
		persisted++
		metrics.CacheMessagesPersisted.WithLabelValues(request.Topic).Inc()
		p.tasks.Progress(request.Task, float64(persisted)/float64(request.Target))
	}
	done <- persisted
}
