package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Query metrics
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lattice_query_duration_seconds",
			Help:    "Time taken to execute a query, from parse through commit, in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lattice_queries_total",
			Help: "Total number of queries executed by outcome",
		},
		[]string{"outcome"},
	)

	// Block store cache metrics
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_cache_hits_total",
			Help: "Total number of block store reads served from the LRU cache",
		},
	)

	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_cache_misses_total",
			Help: "Total number of block store reads that fell through to the backend",
		},
	)

	// WAL metrics
	WALEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_wal_entries_total",
			Help: "Total number of entries appended to the write-ahead log",
		},
	)

	WALCompactionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_wal_compactions_total",
			Help: "Total number of WAL compaction runs completed",
		},
	)

	// Transaction metrics
	TxCommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_tx_commits_total",
			Help: "Total number of transactions committed",
		},
	)

	TxRollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_tx_rollbacks_total",
			Help: "Total number of transactions rolled back",
		},
	)

	TxConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lattice_tx_conflicts_total",
			Help: "Total number of transactions aborted due to a write-write or read-write conflict",
		},
	)

	// Graph size gauges
	NodesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lattice_nodes_total",
			Help: "Current number of nodes in the graph",
		},
	)

	RelationshipsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lattice_rels_total",
			Help: "Current number of relationships in the graph",
		},
	)

	IndexesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lattice_indexes_total",
			Help: "Current number of declared secondary indexes",
		},
	)
)

func init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(WALEntriesTotal)
	prometheus.MustRegister(WALCompactionsTotal)
	prometheus.MustRegister(TxCommitsTotal)
	prometheus.MustRegister(TxRollbacksTotal)
	prometheus.MustRegister(TxConflictsTotal)
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(RelationshipsTotal)
	prometheus.MustRegister(IndexesTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
