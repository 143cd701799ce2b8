package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dom_search",
		Name:      "requests_total",
		Help:      "Search requests by outcome, ok or the failing stage.",
	}, []string{"outcome"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dom_search",
		Name:      "request_duration_seconds",
		Help:      "End-to-end search request duration.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)

func observeSearch(outcome string, d time.Duration) {
	searchRequests.WithLabelValues(outcome).Inc()
	searchDuration.Observe(d.Seconds())
}
