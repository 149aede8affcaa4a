package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

// Admin wraps a Sarama client and cluster admin for one operation.
type Admin struct {
	client           sarama.Client
	admin            sarama.ClusterAdmin
	watermarkTimeout time.Duration
	logger           logger.Logger
}

// ListTopics lists all topics with their partition ids. Watermarks are not
// resolved here; FetchPartitions does that per topic on demand.
func (a *Admin) ListTopics(ctx context.Context) ([]*domain.Topic, error) {
	names, err := a.client.Topics()
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}

	topics := make([]*domain.Topic, 0, len(names))
	for _, name := range names {
		ids, err := a.client.Partitions(name)
		if err != nil {
			a.logger.Warn("failed to list partitions", "topic", name, "error", err)
			continue
		}
		partitions := make([]domain.Partition, len(ids))
		for i, id := range ids {
			partitions[i] = domain.Partition{
				ID:         id,
				OffsetLow:  domain.OffsetUnknown,
				OffsetHigh: domain.OffsetUnknown,
			}
		}
		topics = append(topics, &domain.Topic{
			Name:       name,
			Partitions: partitions,
		})
	}

	return topics, nil
}

// FetchPartitions returns the current partitions of a topic with low/high
// watermarks. A failed watermark query leaves the (-1, -1) sentinel on that
// partition; deciding what to do with it is the caller's concern. An absent
// topic yields an empty list.
func (a *Admin) FetchPartitions(ctx context.Context, topic string) ([]domain.Partition, error) {
	ids, err := a.client.Partitions(topic)
	if err != nil {
		if errors.Is(err, sarama.ErrUnknownTopicOrPartition) {
			a.logger.Warn("topic not found in broker metadata", "topic", topic)
			return []domain.Partition{}, nil
		}
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", topic, err)
	}

	partitions := make([]domain.Partition, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		low, high, err := a.watermarks(topic, id)
		if err != nil {
			a.logger.Warn("failed to fetch watermarks",
				"topic", topic,
				"partition", id,
				"error", err)
			low, high = domain.OffsetUnknown, domain.OffsetUnknown
		}
		partitions = append(partitions, domain.Partition{
			ID:         id,
			OffsetLow:  low,
			OffsetHigh: high,
		})
	}

	return partitions, nil
}

// watermarks fetches the low/high offsets of one partition, bounded by the
// watermark timeout. Sarama has no per-call deadline, so the query runs in a
// goroutine raced against a timer.
func (a *Admin) watermarks(topic string, partition int32) (int64, int64, error) {
	type result struct {
		low, high int64
		err       error
	}
	done := make(chan result, 1)
	go func() {
		var res result
		res.low, res.err = a.client.GetOffset(topic, partition, sarama.OffsetOldest)
		if res.err == nil {
			res.high, res.err = a.client.GetOffset(topic, partition, sarama.OffsetNewest)
		}
		done <- res
	}()

	timer := time.NewTimer(a.watermarkTimeout)
	defer timer.Stop()
	select {
	case res := <-done:
		if res.err != nil {
			return 0, 0, res.err
		}
		return res.low, res.high, nil
	case <-timer.C:
		return 0, 0, fmt.Errorf("watermark fetch timed out after %s", a.watermarkTimeout)
	}
}

// OffsetForTimestamp resolves the first offset at or after the given epoch
// millisecond timestamp. Returns the high watermark when no such message
// exists.
func (a *Admin) OffsetForTimestamp(ctx context.Context, topic string, partition int32, timestampMs int64) (int64, error) {
	offset, err := a.client.GetOffset(topic, partition, timestampMs)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve offset for timestamp: %w", err)
	}
	if offset < 0 {
		// No message at or after the timestamp yet.
		return a.client.GetOffset(topic, partition, sarama.OffsetNewest)
	}
	return offset, nil
}

// CreateTopic creates a new topic
func (a *Admin) CreateTopic(ctx context.Context, name string, partitions int32, replicationFactor int16) error {
	detail := &sarama.TopicDetail{
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}

	return a.admin.CreateTopic(name, detail, false)
}

// DeleteTopic deletes a topic
func (a *Admin) DeleteTopic(ctx context.Context, name string) error {
	return a.admin.DeleteTopic(name)
}

// Close closes the admin client
func (a *Admin) Close() error {
	if a.admin != nil {
		// Closing the cluster admin also closes the underlying client.
		return a.admin.Close()
	}
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}
