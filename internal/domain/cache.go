package domain

// TopicCacheSettings is the per-(connection, topic) cache policy. One row per
// topic, created on the first "apply cache settings" and overwritten on every
// re-apply. Re-applying always wipes the previously cached rows so stale data
// under a changed fetch policy is never visible.
type TopicCacheSettings struct {
	ConnectionID uint
	TopicName    string
	FetchMode    FetchMode
	// FetchValue is the message count for Newest/Oldest, or the epoch
	// millisecond timestamp for FromTimestamp. Ignored for All.
	FetchValue      int64
	DefaultPageSize int
	// LastUpdated is the epoch millisecond timestamp of the last populate.
	LastUpdated int64
}
