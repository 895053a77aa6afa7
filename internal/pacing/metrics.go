package pacing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "competiscan_searches_total",
		Help: "Total number of successful search fetches.",
	})
	blocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "competiscan_blocks_total",
		Help: "Total number of fetches rejected by anti-bot challenges.",
	})
	batchCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "competiscan_batch_cooldowns_total",
		Help: "Total number of batch cooldown pauses taken.",
	})
	emergencyCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "competiscan_emergency_cooldowns_total",
		Help: "Total number of emergency cooldown pauses taken.",
	})
	throttleDelaySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "competiscan_throttle_delay_seconds",
		Help:    "Histogram of inter-request throttle waits.",
		Buckets: []float64{1, 2, 5, 10, 15, 20, 25, 30},
	})
)
