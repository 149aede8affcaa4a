package messages

import (
	"context"
	"errors"
	"time"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	"github.com/miguelbaldi/kafka-browser/pkg/metrics"
)

const defaultPollTimeout = 5 * time.Second

// readLive performs one bounded read straight from the broker: assign the
// window lows, poll until the expected number of records arrived, and
// return them without persisting anything. A stalled broker ends the read
// with whatever was collected so far.
func (s *Service) readLive(
	ctx context.Context,
	task domain.Task,
	conn *domain.Connection,
	topicName string,
	windows []domain.Partition,
	total int64,
) ([]domain.Message, error) {
	consumer, err := s.kafkaRepo.CreateConsumer(ctx, conn, repository.ConsumerConfig{
		StartOffset: repository.StartOffsetEarliest,
	})
	if err != nil {
		return nil, err
	}
	defer consumer.Close()

	assignments := make([]repository.PartitionOffset, 0, len(windows))
	highByPartition := make(map[int32]int64, len(windows))
	for _, window := range windows {
		if !window.Known() || window.Count() == 0 {
			continue
		}
		assignments = append(assignments, repository.PartitionOffset{
			Topic:     topicName,
			Partition: window.ID,
			Offset:    window.OffsetLow,
		})
		highByPartition[window.ID] = window.OffsetHigh
	}
	if len(assignments) == 0 {
		return []domain.Message{}, nil
	}
	if err := consumer.Assign(assignments); err != nil {
		return nil, err
	}

	pollTimeout := 3 * s.settings.ConnectionTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	collected := make([]domain.Message, 0, total)
	for int64(len(collected)) < total {
		message, err := s.pollOnce(ctx, consumer, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled reads return the partial result.
				break
			}
			if errors.Is(err, context.DeadlineExceeded) {
				s.logger.Warn("live read timed out waiting for records",
					"topic", topicName,
					"collected", len(collected),
					"expected", total)
				break
			}
			s.logger.Warn("live read poll error", "topic", topicName, "error", err)
			continue
		}

		high, tracked := highByPartition[message.Partition]
		if !tracked || message.Offset >= high {
			continue
		}
		collected = append(collected, *message)
		s.tasks.Progress(task, float64(len(collected))/float64(total))
	}

	metrics.LiveMessagesRead.WithLabelValues(topicName).Add(float64(len(collected)))
	return collected, nil
}

// pollOnce bounds a single Poll call so a quiet broker cannot hang the
// read past the configured timeout.
func (s *Service) pollOnce(ctx context.Context, consumer repository.Consumer, timeout time.Duration) (*domain.Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return consumer.Poll(pollCtx)
}
