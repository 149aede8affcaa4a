package kafka

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/IBM/sarama"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

// Consumer wraps a Sarama consumer. Per-partition streams are fanned into a
// single record channel so Poll can race the next record against
// cancellation.
type Consumer struct {
	client    sarama.Client
	consumer  sarama.Consumer
	initial   int64
	logger    logger.Logger
	records   chan *sarama.ConsumerMessage
	errs      chan *sarama.ConsumerError
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu  sync.Mutex
	pcs []sarama.PartitionConsumer
}

func newConsumer(client sarama.Client, consumer sarama.Consumer, initial int64, log logger.Logger) *Consumer {
	return &Consumer{
		client:   client,
		consumer: consumer,
		initial:  initial,
		logger:   log,
		records:  make(chan *sarama.ConsumerMessage, 32),
		errs:     make(chan *sarama.ConsumerError, 32),
		done:     make(chan struct{}),
	}
}

// Assign starts consuming the given partitions at explicit offsets.
func (c *Consumer) Assign(assignments []repository.PartitionOffset) error {
	for _, a := range assignments {
		pc, err := c.consumer.ConsumePartition(a.Topic, a.Partition, a.Offset)
		if err != nil {
			return fmt.Errorf("failed to consume partition %d at offset %d: %w", a.Partition, a.Offset, err)
		}
		c.track(pc)
	}
	return nil
}

// Subscribe starts consuming every partition of the given topics at the
// configured initial offset.
func (c *Consumer) Subscribe(topics []string) error {
	for _, topic := range topics {
		partitions, err := c.client.Partitions(topic)
		if err != nil {
			return fmt.Errorf("failed to get partitions for %s: %w", topic, err)
		}

		for _, partition := range partitions {
			pc, err := c.consumer.ConsumePartition(topic, partition, c.initial)
			if err != nil {
				return fmt.Errorf("failed to consume partition %d: %w", partition, err)
			}
			c.track(pc)
		}
	}
	return nil
}

func (c *Consumer) track(pc sarama.PartitionConsumer) {
	c.mu.Lock()
	c.pcs = append(c.pcs, pc)
	c.mu.Unlock()
	c.wg.Add(1)
	go c.forward(pc)
}

func (c *Consumer) forward(pc sarama.PartitionConsumer) {
	defer c.wg.Done()
	messages := pc.Messages()
	errors := pc.Errors()
	for {
		select {
		case m, ok := <-messages:
			if !ok {
				return
			}
			select {
			case c.records <- m:
			case <-c.done:
				return
			}
		case e, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			select {
			case c.errs <- e:
			case <-c.done:
				return
			}
		case <-c.done:
			return
		}
	}
}

// Poll blocks until the next record arrives on any assigned partition, a
// broker error is reported, or ctx is done. Broker errors do not terminate
// the stream; the caller decides whether to keep polling.
func (c *Consumer) Poll(ctx context.Context) (*domain.Message, error) {
	select {
	case m := <-c.records:
		return c.convertMessage(m), nil
	case e := <-c.errs:
		return nil, e
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes every partition consumer and the underlying client.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		pcs := c.pcs
		c.pcs = nil
		c.mu.Unlock()
		for _, pc := range pcs {
			pc.AsyncClose()
		}
		c.wg.Wait()
		if c.consumer != nil {
			err = c.consumer.Close()
		}
		if c.client != nil {
			if cerr := c.client.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}

// convertMessage maps a sarama record into the domain. Invalid UTF-8 in key
// or value is substituted with an empty string and logged; it never fails
// the stream.
func (c *Consumer) convertMessage(m *sarama.ConsumerMessage) *domain.Message {
	headers := make([]domain.Header, len(m.Headers))
	for i, h := range m.Headers {
		headers[i] = domain.Header{
			Key:   c.decodeField(m, "header", h.Key),
			Value: c.decodeField(m, "header-value", h.Value),
		}
	}

	var timestamp int64
	if !m.Timestamp.IsZero() {
		timestamp = m.Timestamp.UnixMilli()
	}

	return &domain.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       c.decodeField(m, "key", m.Key),
		Value:     c.decodeField(m, "value", m.Value),
		Timestamp: timestamp,
		Headers:   headers,
	}
}

func (c *Consumer) decodeField(m *sarama.ConsumerMessage, field string, raw []byte) string {
	if raw == nil {
		return ""
	}
	if !utf8.Valid(raw) {
		c.logger.Warn("failed to decode message field",
			"field", field,
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset)
		return ""
	}
	return string(raw)
}
