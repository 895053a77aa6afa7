package sinks

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/competiscan/competiscan/internal/progress"
)

var (
	productsDoneTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "competiscan_products_done_total",
		Help: "Total number of products processed.",
	})
	competitorHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "competiscan_competitor_hits_total",
		Help: "Total accepted competitor matches, labeled by competitor key.",
	}, []string{"competitor"})
	productDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "competiscan_product_duration_seconds",
		Help:    "Histogram of per-product resolution latency.",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
	})
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "competiscan_runs_total",
		Help: "Total runs completed, labeled by outcome.",
	}, []string{"outcome"})
)

// PrometheusSink translates progress events into Prometheus metrics.
type PrometheusSink struct{}

// NewPrometheusSink constructs a PrometheusSink.
func NewPrometheusSink() *PrometheusSink {
	return &PrometheusSink{}
}

// Consume updates counters and histograms for each event.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageProductDone:
			productsDoneTotal.Inc()
			if evt.Dur > 0 {
				productDurationSeconds.Observe(evt.Dur.Seconds())
			}
		case progress.StageMatch:
			competitorHitsTotal.WithLabelValues(evt.Competitor).Inc()
		case progress.StageRunDone:
			runsTotal.WithLabelValues("success").Inc()
		case progress.StageRunError:
			runsTotal.WithLabelValues("error").Inc()
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
