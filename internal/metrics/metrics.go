// Package metrics exposes Prometheus instrumentation for the ledger, the
// HTTP layer and the event sinks.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expensetracker/internal/core"
)

const namespace = "expense_tracker"

// Recorder owns its registry so tests and multiple servers never collide on
// the global one.
type Recorder struct {
	registry *prometheus.Registry

	mutations      *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	expenseAmount  prometheus.Histogram
	entries        prometheus.Gauge
	total          prometheus.Gauge
	goalPercentage prometheus.Gauge
	sinkFailures   *prometheus.CounterVec
	paletteEvicted prometheus.Counter
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_mutations_total",
			Help:      "Successful ledger mutations by kind",
		}, []string{"kind"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rejections_total",
			Help:      "Rejected ledger operations by operation and reason",
		}, []string{"operation", "reason"}),
		expenseAmount: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "expense_amount",
			Help:      "Amounts of added expenses",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_entries",
			Help:      "Number of entries in the ledger",
		}),
		total: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_total",
			Help:      "Sum of all ledger amounts",
		}),
		goalPercentage: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_goal_percentage",
			Help:      "Total as a percentage of the spending goal, 0 when no goal is set",
		}),
		sinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_sink_failures_total",
			Help:      "Ledger events that could not be delivered to a sink",
		}, []string{"sink"}),
		paletteEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "palette_evictions_total",
			Help:      "Category colors dropped from the palette for space",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// LedgerChanged counts successful mutations.
func (r *Recorder) LedgerChanged(ev core.Event) {
	r.mutations.WithLabelValues(string(ev.Kind)).Inc()
	if ev.Kind == core.EventExpenseAdded {
		f, _ := ev.Expense.Amount.Float64()
		r.expenseAmount.Observe(f)
	}
}

// ObserveSnapshot refreshes the ledger gauges.
func (r *Recorder) ObserveSnapshot(s core.Snapshot) {
	r.entries.Set(float64(len(s.Entries)))
	total, _ := s.Total.Float64()
	r.total.Set(total)
	pct := 0.0
	if s.Progress.Status != core.NoGoal {
		pct, _ = s.Progress.Percentage.Float64()
	}
	r.goalPercentage.Set(pct)
}

func (r *Recorder) Rejected(operation, reason string) {
	r.rejections.WithLabelValues(operation, reason).Inc()
}

func (r *Recorder) SinkFailed(sink string) {
	r.sinkFailures.WithLabelValues(sink).Inc()
}

// PaletteEvicted counts a category losing its color. The category is not a
// label so cardinality stays bounded.
func (r *Recorder) PaletteEvicted(string) {
	r.paletteEvicted.Inc()
}

func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }
