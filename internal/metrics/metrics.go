// Package metrics provides Prometheus metrics for the graph engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pipeline_graph"

var (
	// UploadsTotal counts uploads by result.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total number of uploads by result",
		},
		[]string{"result"}, // "ok", "malformed", "store_error"
	)

	// IngestRowsTotal counts input rows by outcome.
	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Total number of input rows by outcome",
		},
		[]string{"outcome"}, // "accepted", "skipped", "malformed"
	)

	// EdgesDroppedTotal counts candidate edges that were not stored.
	EdgesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "edges_dropped_total",
			Help:      "Candidate edges not stored, by reason",
		},
		[]string{"reason"}, // "dangling", "duplicate"
	)

	// UploadDuration tracks end-to-end upload latency.
	UploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "upload_duration_seconds",
			Help:      "Upload duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// GraphNodes is the node count of the last stored graph.
	GraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Number of nodes in the stored graph",
		},
	)

	// GraphEdges is the edge count of the last stored graph.
	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Number of edges in the stored graph",
		},
	)

	// StoreOperations counts persistence operations.
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"operation", "result"}, // result: success, error
	)

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveStore records the outcome of a store operation.
func ObserveStore(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(operation, result).Inc()
}
