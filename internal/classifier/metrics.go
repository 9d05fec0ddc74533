package classifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeSingle = "single"
	modeBatch  = "batch"

	outcomeOK        = "ok"
	outcomeFallback  = "fallback"
	outcomeError     = "error"
	outcomeNotLoaded = "not_loaded"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodclass",
			Subsystem: "classifier",
			Name:      "requests_total",
			Help:      "Classification calls by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prodclass",
			Subsystem: "classifier",
			Name:      "duration_seconds",
			Help:      "Wall time of one runtime invocation",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	parserOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodclass",
			Subsystem: "parser",
			Name:      "outcomes_total",
			Help:      "Parsed classifications by response form and recovery tier",
		},
		[]string{"form", "tier"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, durationSeconds, parserOutcomes)
}

func observeCall(mode, outcome string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(mode, outcome).Inc()
	if elapsed > 0 {
		durationSeconds.WithLabelValues(mode).Observe(elapsed.Seconds())
	}
}

func observeParse(form string, items ...Parsed) {
	for _, p := range items {
		parserOutcomes.WithLabelValues(form, string(p.Tier)).Inc()
	}
}
