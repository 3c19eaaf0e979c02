// Package observability provides loop Loggers that export Prometheus metrics and
// OpenTelemetry traces.
package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/loopx"
)

// Metrics holds the collectors shared by every MetricsLogger created from it.
type Metrics struct {
	inits      *prometheus.CounterVec
	updates    *prometheus.CounterVec
	noChange   *prometheus.CounterVec
	effects    *prometheus.CounterVec
	exceptions *prometheus.CounterVec
	duration   *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates unregistered collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "loopx"
	}
	return &Metrics{
		inits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loop",
				Name:      "inits_total",
				Help:      "Completed init calls.",
			},
			[]string{"loop"},
		),
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loop",
				Name:      "updates_total",
				Help:      "Completed update calls.",
			},
			[]string{"loop"},
		),
		noChange: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loop",
				Name:      "updates_no_change_total",
				Help:      "Update calls that returned no new model.",
			},
			[]string{"loop"},
		),
		effects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loop",
				Name:      "effects_total",
				Help:      "Effects produced by init and update.",
			},
			[]string{"loop"},
		),
		exceptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "loop",
				Name:      "exceptions_total",
				Help:      "Panics raised by init or update.",
			},
			[]string{"loop", "phase"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "loop",
				Name:      "update_duration_seconds",
				Help:      "Update duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"loop"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Collectors returns every collector, for callers that register them themselves.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.inits, m.updates, m.noChange, m.effects, m.exceptions, m.duration,
		m.httpRequests, m.httpDuration,
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordHTTPRequest counts one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

// MetricsLogger records loop activity for one loop label.
type MetricsLogger[M, E, F any] struct {
	m    *Metrics
	loop string

	mu      sync.Mutex
	started time.Time
}

// NewMetricsLogger returns a Logger that records into m under the label loop.
func NewMetricsLogger[M, E, F any](m *Metrics, loop string) *MetricsLogger[M, E, F] {
	return &MetricsLogger[M, E, F]{m: m, loop: loop}
}

func (l *MetricsLogger[M, E, F]) BeforeInit(M) {}

func (l *MetricsLogger[M, E, F]) AfterInit(_ M, result loopx.First[M, F]) {
	l.m.inits.WithLabelValues(l.loop).Inc()
	l.m.effects.WithLabelValues(l.loop).Add(float64(len(result.Effects())))
}

func (l *MetricsLogger[M, E, F]) ExceptionDuringInit(M, error) {
	l.m.exceptions.WithLabelValues(l.loop, "init").Inc()
}

func (l *MetricsLogger[M, E, F]) BeforeUpdate(M, E) {
	l.mu.Lock()
	l.started = time.Now()
	l.mu.Unlock()
}

func (l *MetricsLogger[M, E, F]) AfterUpdate(_ M, _ E, result loopx.Next[M, F]) {
	l.observeDuration()
	l.m.updates.WithLabelValues(l.loop).Inc()
	if !result.HasModel() {
		l.m.noChange.WithLabelValues(l.loop).Inc()
	}
	l.m.effects.WithLabelValues(l.loop).Add(float64(len(result.Effects())))
}

func (l *MetricsLogger[M, E, F]) ExceptionDuringUpdate(M, E, error) {
	l.observeDuration()
	l.m.exceptions.WithLabelValues(l.loop, "update").Inc()
}

func (l *MetricsLogger[M, E, F]) observeDuration() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if started.IsZero() {
		return
	}
	l.m.duration.WithLabelValues(l.loop).Observe(time.Since(started).Seconds())
}
