package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache population metrics
	CacheMessagesPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_browser_cache_messages_persisted_total",
			Help: "Total number of messages persisted to the local cache",
		},
		[]string{"topic"},
	)

	CacheMessagesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_browser_cache_messages_skipped_total",
			Help: "Messages dropped during cache population",
		},
		[]string{"topic", "reason"},
	)

	CacheDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_browser_cache_duration_seconds",
			Help:    "Duration of cache populate operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic", "operation"},
	)

	// Page read metrics
	PageReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_browser_page_reads_total",
			Help: "Total number of message pages served",
		},
		[]string{"mode"},
	)

	LiveMessagesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_browser_live_messages_read_total",
			Help: "Messages read directly from the broker in live mode",
		},
		[]string{"topic"},
	)

	// Store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_browser_store_operations_total",
			Help: "Total local store operations",
		},
		[]string{"operation", "status"},
	)

	// Task metrics
	TasksCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_browser_tasks_cancelled_total",
			Help: "User-cancelled long-running operations",
		},
		[]string{"variant"},
	)
)
