package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/internal/repository"
	apperrors "github.com/miguelbaldi/kafka-browser/pkg/errors"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
)

const clientID = "kafka-browser"

// Repository implements KafkaRepository using Sarama. Every call builds a
// fresh sarama client scoped to one operation; nothing is shared across
// concurrent tasks.
type Repository struct {
	defaultTimeout   time.Duration
	metadataTimeout  time.Duration
	watermarkTimeout time.Duration
	logger           logger.Logger
}

// NewRepository creates a new Kafka repository
func NewRepository(defaultTimeout, metadataTimeout, watermarkTimeout time.Duration, log logger.Logger) repository.KafkaRepository {
	return &Repository{
		defaultTimeout:   defaultTimeout,
		metadataTimeout:  metadataTimeout,
		watermarkTimeout: watermarkTimeout,
		logger:           log,
	}
}

// CreateConsumer creates a Kafka consumer
func (r *Repository) CreateConsumer(
	ctx context.Context,
	conn *domain.Connection,
	config repository.ConsumerConfig,
) (repository.Consumer, error) {
	saramaConfig := r.buildSaramaConfig(conn)
	saramaConfig.Consumer.Return.Errors = true
	if config.StartOffset == repository.StartOffsetLatest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	client, err := sarama.NewClient(brokers(conn), saramaConfig)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBrokerUnreachable, "failed to create client")
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	return newConsumer(client, consumer, saramaConfig.Consumer.Offsets.Initial, r.logger), nil
}

// CreateProducer creates a Kafka producer
func (r *Repository) CreateProducer(
	ctx context.Context,
	conn *domain.Connection,
) (repository.Producer, error) {
	saramaConfig := r.buildSaramaConfig(conn)
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Partitioner = sarama.NewManualPartitioner

	client, err := sarama.NewClient(brokers(conn), saramaConfig)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBrokerUnreachable, "failed to create client")
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &Producer{
		client:   client,
		producer: producer,
	}, nil
}

// CreateAdmin creates a Kafka admin client
func (r *Repository) CreateAdmin(
	ctx context.Context,
	conn *domain.Connection,
) (repository.Admin, error) {
	saramaConfig := r.buildSaramaConfig(conn)

	client, err := sarama.NewClient(brokers(conn), saramaConfig)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBrokerUnreachable, "failed to create client")
	}

	admin, err := sarama.NewClusterAdminFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return &Admin{
		client:           client,
		admin:            admin,
		watermarkTimeout: r.watermarkTimeout,
		logger:           r.logger,
	}, nil
}

// HealthCheck checks Kafka cluster connectivity
func (r *Repository) HealthCheck(ctx context.Context, conn *domain.Connection) error {
	saramaConfig := r.buildSaramaConfig(conn)

	client, err := sarama.NewClient(brokers(conn), saramaConfig)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeBrokerUnreachable, "failed to connect")
	}
	defer client.Close()

	return nil
}

func (r *Repository) buildSaramaConfig(conn *domain.Connection) *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.ClientID = clientID

	timeout := conn.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	config.Net.DialTimeout = timeout
	config.Net.ReadTimeout = timeout
	config.Net.WriteTimeout = timeout
	config.Admin.Timeout = r.metadataTimeout
	config.Metadata.Retry.Max = 1

	// Security configuration
	switch conn.Security.Protocol {
	case domain.SecurityProtocolSASLPlain, domain.SecurityProtocolSASLSSL:
		config.Net.SASL.Enable = true
		config.Net.SASL.User = conn.Security.Username
		config.Net.SASL.Password = conn.Security.Password
		switch conn.Security.SASLMechanism {
		case domain.SASLMechanismScramSHA256:
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case domain.SASLMechanismScramSHA512:
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		default:
			config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
		if conn.Security.Protocol == domain.SecurityProtocolSASLSSL {
			config.Net.TLS.Enable = true
		}
	case domain.SecurityProtocolSSL:
		config.Net.TLS.Enable = true
	}

	return config
}

func brokers(conn *domain.Connection) []string {
	parts := strings.Split(conn.BrokersList, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
