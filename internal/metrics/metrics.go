// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agromind_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agromind_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
		[]string{"route"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agromind_recommendations_total",
			Help: "Fertilizer plans issued, by canonical crop label",
		},
		[]string{"crop"},
	)

	PlanItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agromind_plan_items_total",
			Help: "Line items emitted in fertilizer plans, by product",
		},
		[]string{"product"},
	)

	WeatherLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agromind_weather_lookups_total",
			Help: "Weather lookups by the source that served them",
		},
		[]string{"source"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agromind_inference_duration_seconds",
			Help:    "Latency of model server predict calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model", "outcome"},
	)

	Diagnoses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agromind_diagnoses_total",
			Help: "Leaf images classified, by predicted class",
		},
		[]string{"class"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agromind_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agromind_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func RecordInference(model string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	InferenceDuration.WithLabelValues(model, outcome).Observe(duration.Seconds())
}
