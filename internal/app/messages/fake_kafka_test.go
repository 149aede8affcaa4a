package messages

import (
	"context"
	"sync"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
)

// fakeKafkaRepository serves one topic's partitions and records from memory.
// A non-nil gate makes every consumer wait for one token per record, which
// lets tests control exactly how far a populate run gets before
// cancellation.
type fakeKafkaRepository struct {
	mu         sync.Mutex
	partitions []domain.Partition
	records    map[int32][]domain.Message
	offsetsFor map[int32]int64
	gate       chan struct{}
}

var _ repository.KafkaRepository = (*fakeKafkaRepository)(nil)

func newFakeKafka(partitions []domain.Partition, records map[int32][]domain.Message) *fakeKafkaRepository {
	return &fakeKafkaRepository{
		partitions: partitions,
		records:    records,
	}
}

func (f *fakeKafkaRepository) CreateConsumer(ctx context.Context, conn *domain.Connection, config repository.ConsumerConfig) (repository.Consumer, error) {
	return &fakeConsumer{repo: f}, nil
}

func (f *fakeKafkaRepository) CreateProducer(ctx context.Context, conn *domain.Connection) (repository.Producer, error) {
	return &fakeProducer{repo: f}, nil
}

func (f *fakeKafkaRepository) CreateAdmin(ctx context.Context, conn *domain.Connection) (repository.Admin, error) {
	return &fakeAdmin{repo: f}, nil
}

func (f *fakeKafkaRepository) HealthCheck(ctx context.Context, conn *domain.Connection) error {
	return nil
}

type fakeConsumer struct {
	repo  *fakeKafkaRepository
	queue []domain.Message
}

func (c *fakeConsumer) Assign(assignments []repository.PartitionOffset) error {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	for _, a := range assignments {
		for _, msg := range c.repo.records[a.Partition] {
			if msg.Offset >= a.Offset {
				c.queue = append(c.queue, msg)
			}
		}
	}
	return nil
}

func (c *fakeConsumer) Subscribe(topics []string) error {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	for _, msgs := range c.repo.records {
		c.queue = append(c.queue, msgs...)
	}
	return nil
}

// Poll delivers the next assigned record, blocking on the repository gate
// when one is set. An exhausted queue blocks until the context ends, like a
// quiet broker.
func (c *fakeConsumer) Poll(ctx context.Context) (*domain.Message, error) {
	if len(c.queue) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.repo.gate != nil {
		select {
		case <-c.repo.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	msg := c.queue[0]
	c.queue = c.queue[1:]
	return &msg, nil
}

func (c *fakeConsumer) Close() error { return nil }

type fakeAdmin struct {
	repo *fakeKafkaRepository
}

func (a *fakeAdmin) ListTopics(ctx context.Context) ([]*domain.Topic, error) {
	return nil, nil
}

func (a *fakeAdmin) FetchPartitions(ctx context.Context, topic string) ([]domain.Partition, error) {
	a.repo.mu.Lock()
	defer a.repo.mu.Unlock()
	out := make([]domain.Partition, len(a.repo.partitions))
	copy(out, a.repo.partitions)
	return out, nil
}

func (a *fakeAdmin) OffsetForTimestamp(ctx context.Context, topic string, partition int32, timestampMs int64) (int64, error) {
	a.repo.mu.Lock()
	defer a.repo.mu.Unlock()
	if off, ok := a.repo.offsetsFor[partition]; ok {
		return off, nil
	}
	return 0, nil
}

func (a *fakeAdmin) CreateTopic(ctx context.Context, name string, partitions int32, replicationFactor int16) error {
	return nil
}

func (a *fakeAdmin) DeleteTopic(ctx context.Context, name string) error { return nil }

func (a *fakeAdmin) Close() error { return nil }

type fakeProducer struct {
	repo *fakeKafkaRepository
	sent []domain.Message
}

func (p *fakeProducer) Send(ctx context.Context, topic string, message *domain.Message) error {
	p.repo.mu.Lock()
	defer p.repo.mu.Unlock()
	p.sent = append(p.sent, *message)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

// topicRecords builds one partition's records with sequential offsets.
func topicRecords(topic string, partition int32, lowOffset int64, values ...string) []domain.Message {
	msgs := make([]domain.Message, len(values))
	for i, v := range values {
		msgs[i] = domain.Message{
			Topic:     topic,
			Partition: partition,
			Offset:    lowOffset + int64(i),
			Key:       "key",
			Value:     v,
			Timestamp: 1700000000000 + int64(i),
		}
	}
	return msgs
}
