// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redcap_api_requests_total",
			Help: "Total number of REDCap API requests by content type and status",
		},
		[]string{"content", "status"},
	)

	RecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redcap_records_fetched_total",
			Help: "Total number of raw record rows fetched by export type",
		},
		[]string{"type"},
	)

	BatchShrinks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redcap_batch_shrinks_total",
			Help: "Times the record export batch size was halved after an oversized-request rejection",
		},
	)

	TuplesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_tuples_rejected_total",
			Help: "Tuples excluded from the records tree by error category",
		},
		[]string{"category"},
	)

	TreeBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "records_tree_build_duration_seconds",
			Help: "Duration of full records-tree builds in seconds",
		},
	)
)
