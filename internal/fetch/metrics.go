package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "competiscan_fetches_total",
		Help: "Fetches performed, labeled by mode and outcome.",
	}, []string{"mode", "outcome"})

	promotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "competiscan_headless_promotions_total",
		Help: "Probe fetches promoted to the headless renderer.",
	})

	fetchDelaySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "competiscan_fetch_ratelimit_delay_seconds",
		Help:    "Delay introduced by the per-domain rate limiter.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"domain"})
)

func observeFetchDelay(domain string, d time.Duration) {
	fetchDelaySeconds.WithLabelValues(domain).Observe(d.Seconds())
}

func countFetch(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	fetchesTotal.WithLabelValues(mode, outcome).Inc()
}
