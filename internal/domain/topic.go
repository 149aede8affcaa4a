package domain

import "time"

// OffsetUnknown marks a partition whose watermarks could not be fetched.
const OffsetUnknown int64 = -1

// Partition is a snapshot of one partition's offset window. OffsetLow is the
// lowest offset of the window and OffsetHigh is one past the highest. A fresh
// value is built on every watermark query; partitions are never mutated in
// place.
type Partition struct {
	ID         int32
	OffsetLow  int64
	OffsetHigh int64
}

// Known reports whether both watermarks were resolved for the partition.
func (p Partition) Known() bool {
	return p.OffsetLow != OffsetUnknown && p.OffsetHigh != OffsetUnknown
}

// Count returns the number of messages inside the partition window.
func (p Partition) Count() int64 {
	if !p.Known() || p.OffsetHigh <= p.OffsetLow {
		return 0
	}
	return p.OffsetHigh - p.OffsetLow
}

// Topic represents a Kafka topic as seen by the engine. Partitions reflect
// the last computed window, not necessarily the full broker watermark range.
// Total and CachedAt are populated only after a count or cache operation.
type Topic struct {
	ConnectionID uint
	Name         string
	Partitions   []Partition
	Total        int64
	CachedAt     *time.Time
	Favourite    bool
}
