package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traffic_api_readings_ingested_total",
		Help: "Total number of traffic readings persisted.",
	})
	PredictorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traffic_api_predictor_failures_total",
		Help: "Total number of failed signal-timing predictor invocations.",
	})
	InsightRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traffic_api_insight_recomputes_total",
		Help: "Total number of planner-insight recomputation passes.",
	})
	PredictorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traffic_api_predictor_duration_seconds",
		Help:    "Latency of external predictor invocations.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	})
)
