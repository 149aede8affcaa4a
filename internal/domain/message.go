package domain

// Message represents one record of a topic. Once written to the cache a
// message is immutable; rows are only ever deleted in bulk per
// (connection, topic). Natural key: (connection, topic, partition, offset).
type Message struct {
	ConnectionID uint
	Topic        string
	Partition    int32
	Offset       int64
	Key          string
	Value        string
	// Timestamp is broker time in epoch milliseconds, 0 when the broker
	// supplied none.
	Timestamp int64
	Headers   []Header
}

// Header is one entry of the ordered header list attached to a message.
type Header struct {
	Key   string
	Value string
}
