// Package breaker builds sony/gobreaker circuit breakers that report their
// state transitions to the log and to Prometheus.
package breaker

import (
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/metrics"
)

type Settings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenFor is how long the breaker stays open before a trial request.
	OpenFor time.Duration
	// Interval resets the closed-state counts. Zero means one minute.
	Interval time.Duration
	// IsSuccessful decides which errors count as upstream failures. Errors
	// it accepts leave the breaker closed. Nil counts every error.
	IsSuccessful func(err error) bool
}

func (s Settings) withDefaults() Settings {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 30 * time.Second
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	return s
}

func New[T any](name string, s Settings, log zerolog.Logger) *gobreaker.CircuitBreaker[T] {
	s = s.withDefaults()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     s.Interval,
		Timeout:      s.OpenFor,
		IsSuccessful: s.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(StateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

func StateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
