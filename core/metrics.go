package core

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by the invoker.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	mismatches  *prometheus.CounterVec
}

// NewMetrics creates the invocation collectors and registers them on registerer.
// Collectors already registered by another invoker on the same registerer are reused.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		return nil, nil
	}
	m := &Metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "invocations_total",
				Help:      "Total invocations of marked methods.",
			},
			[]string{"component", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "invocation_duration_seconds",
				Help:      "Duration of marked method invocations in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"component", "method"},
		),
		mismatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "return_type_mismatches_total",
				Help:      "Invocations whose result did not match the declared return type.",
			},
			[]string{"component", "method", "expected"},
		),
	}

	var err error
	if m.invocations, err = registerCounterVec(registerer, m.invocations); err != nil {
		return nil, err
	}
	if m.mismatches, err = registerCounterVec(registerer, m.mismatches); err != nil {
		return nil, err
	}
	if err = registerer.Register(m.duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m, nil
}

func registerCounterVec(registerer prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := registerer.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return vec, nil
}

// RecordInvocation counts one invocation and observes its duration.
func (m *Metrics) RecordInvocation(entry Entry, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(entry.Component, entry.Method, status).Inc()
	m.duration.WithLabelValues(entry.Component, entry.Method).Observe(duration.Seconds())
}

// RecordMismatch counts a return type mismatch.
func (m *Metrics) RecordMismatch(entry Entry) {
	if m == nil {
		return
	}
	m.mismatches.WithLabelValues(entry.Component, entry.Method, entry.ReturnType().Name()).Inc()
}
