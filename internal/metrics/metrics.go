// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"car-listing-service/internal/apperr"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total failed store operations",
		},
		[]string{"driver", "operation"},
	)

	ViewEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "view_events_total",
			Help: "View requests by outcome (recorded or deduplicated)",
		},
		[]string{"result"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// ObserveStore records the duration and outcome of one store call. Only
// failures of the store itself count as errors; not-found and validation
// outcomes are normal results.
//
//	defer metrics.ObserveStore("mongo", "ListingRepository.Find", time.Now(), &err)
func ObserveStore(driver, op string, start time.Time, errp *error) {
	StoreQueryDuration.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
	if errp != nil && isStoreFailure(*errp) {
		StoreQueryErrors.WithLabelValues(driver, op).Inc()
	}
}

func isStoreFailure(err error) bool {
	if err == nil {
		return false
	}
	k := apperr.KindOf(err)
	return k == 0 || k == apperr.KindStore
}
