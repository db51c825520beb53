package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_queries_total",
			Help: "Total number of catalog queries by ordering mode and outcome",
		},
		[]string{"order", "outcome"},
	)

	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Catalog query duration in seconds by ordering mode",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"order"},
	)
)

// ObserveQuery records one catalog query.
func ObserveQuery(order Order, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queriesTotal.WithLabelValues(order.String(), outcome).Inc()
	queryDuration.WithLabelValues(order.String()).Observe(time.Since(start).Seconds())
}
