package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
// A nil *Metrics is valid and records nothing, which is how metrics are disabled.
type Metrics struct {
	registry *prometheus.Registry

	tasksSubmitted prometheus.Counter
	tasksFinished  *prometheus.CounterVec
	tasksInFlight  prometheus.Gauge
	taskDuration   *prometheus.HistogramVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the service collectors under namespace.
// Parameters:
//   - namespace: metric name prefix, dots and dashes are replaced with underscores.
//
// Returns:
//   - *Metrics: collectors bound to a fresh registry.
func New(namespace string) *Metrics {
	ns := FmtFixer(namespace)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		tasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "extraction",
			Name:      "tasks_submitted_total",
			Help:      "Extraction tasks accepted by the API.",
		}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "extraction",
			Name:      "tasks_finished_total",
			Help:      "Extraction tasks that reached a terminal state.",
		}, []string{"status"}),
		tasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "extraction",
			Name:      "tasks_in_flight",
			Help:      "Extraction tasks dispatched but not yet terminal.",
		}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "extraction",
			Name:      "task_duration_seconds",
			Help:      "Time from dispatch to terminal state.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      fmt.Sprintf("HTTP request latency of %s", namespace),
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(m.tasksSubmitted, m.tasksFinished, m.tasksInFlight, m.taskDuration, m.httpDuration)
	return m
}

// TaskSubmitted records a newly accepted task.
func (m *Metrics) TaskSubmitted() {
	if m == nil {
		return
	}
	m.tasksSubmitted.Inc()
	m.tasksInFlight.Inc()
}

// TaskFinished records a task reaching status after running for d.
func (m *Metrics) TaskFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.tasksInFlight.Dec()
	m.tasksFinished.WithLabelValues(status).Inc()
	m.taskDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.InstrumentMetricHandler(m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func FmtFixer(in string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(in)
}
