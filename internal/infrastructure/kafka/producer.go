package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// Producer wraps a Sarama sync producer. Built with the manual partitioner:
// messages land on the partition the caller picked.
type Producer struct {
	client   sarama.Client
	producer sarama.SyncProducer
}

// Send delivers one message and waits for the broker acknowledgement.
func (p *Producer) Send(ctx context.Context, topic string, message *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := make([]sarama.RecordHeader, len(message.Headers))
	for i, h := range message.Headers {
		headers[i] = sarama.RecordHeader{
			Key:   []byte(h.Key),
			Value: []byte(h.Value),
		}
	}

	record := &sarama.ProducerMessage{
		Topic:     topic,
		Partition: message.Partition,
		Value:     sarama.StringEncoder(message.Value),
		Headers:   headers,
	}
	if message.Key != "" {
		record.Key = sarama.StringEncoder(message.Key)
	}

	if _, _, err := p.producer.SendMessage(record); err != nil {
		return fmt.Errorf("failed to send message to %s/%d: %w", topic, message.Partition, err)
	}
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	var err error
	if p.producer != nil {
		err = p.producer.Close()
	}
	if p.client != nil {
		if cerr := p.client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
