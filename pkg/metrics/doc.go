/*
Package metrics provides Prometheus metrics collection and exposition for
the query engine.

The metrics package defines and registers every lattice metric using the
Prometheus client library, giving observability into query latency, block
store cache effectiveness, WAL growth, and transaction outcomes. Metrics
are exposed via an HTTP endpoint for scraping by Prometheus servers, the
same shape the teacher's cluster-state collector used.

# Metrics Catalog

Query metrics:

lattice_query_duration_seconds{outcome}:
  - Type: Histogram
  - Description: Time from parse through commit/rollback, in seconds
  - Labels: outcome (committed, rolled_back, failed)

lattice_queries_total{outcome}:
  - Type: Counter
  - Description: Total queries executed by outcome

Cache metrics:

lattice_cache_hits_total / lattice_cache_misses_total:
  - Type: Counter
  - Description: Block store reads served from the LRU cache vs. the backend

WAL metrics:

lattice_wal_entries_total:
  - Type: Counter
  - Description: Entries appended to the write-ahead log

lattice_wal_compactions_total:
  - Type: Counter
  - Description: WAL compaction runs completed (manual or automatic)

Transaction metrics:

lattice_tx_commits_total / lattice_tx_rollbacks_total / lattice_tx_conflicts_total:
  - Type: Counter
  - Description: Transaction outcomes, conflicts are a subset of rollbacks

Graph size gauges:

lattice_nodes_total / lattice_rels_total / lattice_indexes_total:
  - Type: Gauge
  - Description: Refreshed by Collector on each tick; the nodes and rels
    gauges are also set after every commit

# Usage

	import "github.com/latticedb/lattice/pkg/metrics"

	timer := metrics.NewTimer()
	// ... execute query ...
	timer.ObserveDurationVec(metrics.QueryDuration, "committed")
	metrics.QueriesTotal.WithLabelValues("committed").Inc()

	http.Handle("/metrics", metrics.Handler())

# Integration Points

This package integrates with:

  - pkg/engine: times Execute/ExecuteOp, counts commits/rollbacks/conflicts
  - pkg/wal: counts appended entries and compaction runs
  - pkg/block: counts cache hits and misses on Retrieve
  - Prometheus: scrapes /metrics

# Health and Readiness

HealthChecker (health.go) tracks per-component health independent of the
Prometheus registry: RegisterComponent/UpdateComponent record a component's
state, GetHealth/GetReadiness summarize it, and HealthHandler/ReadyHandler/
LivenessHandler expose it over HTTP for a process supervisor. Readiness
additionally requires block, wal and graph to be registered and healthy —
the three components an Engine cannot serve queries without.
*/
package metrics
