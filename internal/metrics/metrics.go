// Package metrics holds the Prometheus collectors for the books service.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for every repository call.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Repository records call counts and latencies of the book repository.
type Repository struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRepository creates the repository collectors and registers them on reg
// (the default registerer when reg is nil). Collectors already registered
// under the same name are reused, so calling it twice against one registry
// is harmless.
func NewRepository(reg prometheus.Registerer) (*Repository, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "books",
		Subsystem: "repository",
		Name:      "operations_total",
		Help:      "Book repository calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "books",
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Book repository call latency, including connection acquisition.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"operation"})

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if dur, err = register(reg, dur); err != nil {
		return nil, err
	}

	return &Repository{operations: ops, duration: dur}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe records one finished call.
func (m *Repository) Observe(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
