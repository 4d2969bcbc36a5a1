package client

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_backend_requests_total",
		Help: "Backend requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finder_backend_request_duration_seconds",
		Help:    "Backend request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_statistics_cache_total",
		Help: "Statistics cache lookups by result",
	}, []string{"result"})
)

func outcome(err error) string {
	var be *BackendError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &be):
		return "status"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func observe(endpoint string, start time.Time, err error) {
	requests.WithLabelValues(endpoint, outcome(err)).Inc()
	latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
