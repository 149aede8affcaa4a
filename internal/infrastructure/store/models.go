package store

import (
	"encoding/json"
	"time"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
)

// messageRow maps to the kb_message cache table. The composite primary key
// enforces write-once per (connection, topic, partition, offset).
type messageRow struct {
	ConnectionID uint   `gorm:"column:connection_id;primaryKey;autoIncrement:false"`
	Topic        string `gorm:"column:topic;size:255;primaryKey"`
	Partition    int32  `gorm:"column:partition;primaryKey;autoIncrement:false"`
	Offset       int64  `gorm:"column:offset;primaryKey;autoIncrement:false"`
	Key          string `gorm:"column:key"`
	Value        string `gorm:"column:value;index:idx_message_value"`
	Timestamp    int64  `gorm:"column:timestamp"`
	Headers      string `gorm:"column:headers"`
}

func (messageRow) TableName() string {
	return "kb_message"
}

func newMessageRow(m *domain.Message) (*messageRow, error) {
	headers, err := json.Marshal(m.Headers)
	if err != nil {
		return nil, err
	}
	return &messageRow{
		ConnectionID: m.ConnectionID,
		Topic:        m.Topic,
		Partition:    m.Partition,
		Offset:       m.Offset,
		Key:          m.Key,
		Value:        m.Value,
		Timestamp:    m.Timestamp,
		Headers:      string(headers),
	}, nil
}

func (r *messageRow) toDomain() domain.Message {
	var headers []domain.Header
	if r.Headers != "" {
		// Rows written by this process always carry valid JSON; a decode
		// failure leaves the headers empty rather than failing the page.
		_ = json.Unmarshal([]byte(r.Headers), &headers)
	}
	return domain.Message{
		ConnectionID: r.ConnectionID,
		Topic:        r.Topic,
		Partition:    r.Partition,
		Offset:       r.Offset,
		Key:          r.Key,
		Value:        r.Value,
		Timestamp:    r.Timestamp,
		Headers:      headers,
	}
}

// topicRow maps to the kb_topic metadata table.
type topicRow struct {
	ConnectionID uint   `gorm:"column:connection_id;primaryKey;autoIncrement:false"`
	Name         string `gorm:"column:name;size:255;primaryKey"`
	Favourite    bool   `gorm:"column:favourite"`
	CachedAt     *int64 `gorm:"column:cached_at"`
}

func (topicRow) TableName() string {
	return "kb_topic"
}

func (r *topicRow) toDomain() *domain.Topic {
	topic := &domain.Topic{
		ConnectionID: r.ConnectionID,
		Name:         r.Name,
		Favourite:    r.Favourite,
	}
	if r.CachedAt != nil {
		ts := time.UnixMilli(*r.CachedAt)
		topic.CachedAt = &ts
	}
	return topic
}

// topicCacheRow maps to the kb_topic_cache settings table, one row per
// (connection, topic).
type topicCacheRow struct {
	ConnectionID    uint   `gorm:"column:connection_id;primaryKey;autoIncrement:false"`
	TopicName       string `gorm:"column:topic_name;size:255;primaryKey"`
	FetchMode       string `gorm:"column:fetch_mode"`
	FetchValue      int64  `gorm:"column:fetch_value"`
	DefaultPageSize int    `gorm:"column:default_page_size"`
	LastUpdated     int64  `gorm:"column:last_updated"`
}

func (topicCacheRow) TableName() string {
	return "kb_topic_cache"
}

func (r *topicCacheRow) toDomain() (*domain.TopicCacheSettings, error) {
	mode, err := domain.ParseFetchMode(r.FetchMode)
	if err != nil {
		return nil, err
	}
	return &domain.TopicCacheSettings{
		ConnectionID:    r.ConnectionID,
		TopicName:       r.TopicName,
		FetchMode:       mode,
		FetchValue:      r.FetchValue,
		DefaultPageSize: r.DefaultPageSize,
		LastUpdated:     r.LastUpdated,
	}, nil
}

// connectionRow maps to the kb_connection table.
type connectionRow struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string `gorm:"column:name;size:255;uniqueIndex"`
	BrokersList   string `gorm:"column:brokers_list"`
	SecurityType  string `gorm:"column:security_type"`
	SASLMechanism string `gorm:"column:sasl_mechanism"`
	SASLUsername  string `gorm:"column:sasl_username"`
	SASLPassword  string `gorm:"column:sasl_password"`
	TimeoutMs     int64  `gorm:"column:timeout_ms"`
}

func (connectionRow) TableName() string {
	return "kb_connection"
}

func newConnectionRow(c *domain.Connection) *connectionRow {
	return &connectionRow{
		ID:            c.ID,
		Name:          c.Name,
		BrokersList:   c.BrokersList,
		SecurityType:  string(c.Security.Protocol),
		SASLMechanism: string(c.Security.SASLMechanism),
		SASLUsername:  c.Security.Username,
		SASLPassword:  c.Security.Password,
		TimeoutMs:     c.Timeout.Milliseconds(),
	}
}

func (r *connectionRow) toDomain() domain.Connection {
	return domain.Connection{
		ID:          r.ID,
		Name:        r.Name,
		BrokersList: r.BrokersList,
		Security: domain.SecurityConfig{
			Protocol:      domain.SecurityProtocol(r.SecurityType),
			SASLMechanism: domain.SASLMechanism(r.SASLMechanism),
			Username:      r.SASLUsername,
			Password:      r.SASLPassword,
		},
		Timeout: time.Duration(r.TimeoutMs) * time.Millisecond,
	}
}
