package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
)

// Collector bundles Prometheus metrics for tree edits and the HTTP API.
type Collector struct {
	gatherer prometheus.Gatherer

	Operations   *prometheus.CounterVec
	Durations    *prometheus.HistogramVec
	HTTPRequests *prometheus.CounterVec

	Nodes       prometheus.Gauge
	Leaves      prometheus.Gauge
	ExpectedMin prometheus.Gauge
	ExpectedMax prometheus.Gauge
}

var _ interfaces.MetricsRecorder = &Collector{}

// New registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ops, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risktree_operations_total",
		Help: "Total number of tree edit operations, labeled by operation and result.",
	}, []string{"op", "result"}))
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "risktree_operation_duration_seconds",
		Help:    "Tree edit latency in seconds, including the snapshot write.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"op"}))
	if err != nil {
		return nil, err
	}

	httpRequests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risktree_http_requests_total",
		Help: "Total number of HTTP API requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}))
	if err != nil {
		return nil, err
	}

	gauge := func(name, help string) (prometheus.Gauge, error) {
		return register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}))
	}
	nodes, err := gauge("risktree_nodes", "Number of nodes reachable from the root.")
	if err != nil {
		return nil, err
	}
	leaves, err := gauge("risktree_leaves", "Number of leaf nodes reachable from the root.")
	if err != nil {
		return nil, err
	}
	expectedMin, err := gauge("risktree_expected_loss_min", "Sum of the minimum expected loss over leaves.")
	if err != nil {
		return nil, err
	}
	expectedMax, err := gauge("risktree_expected_loss_max", "Sum of the maximum expected loss over leaves.")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Operations:   ops,
		Durations:    durations,
		HTTPRequests: httpRequests,
		Nodes:        nodes,
		Leaves:       leaves,
		ExpectedMin:  expectedMin,
		ExpectedMax:  expectedMax,
	}, nil
}

func (c *Collector) RecordOperation(op string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Operations.WithLabelValues(op, result).Inc()
	c.Durations.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collector) RecordTree(totals model.Totals) {
	if c == nil {
		return
	}
	c.Nodes.Set(float64(totals.Nodes))
	c.Leaves.Set(float64(totals.Leaves))
	c.ExpectedMin.Set(totals.ExpectedMin)
	c.ExpectedMax.Set(totals.ExpectedMax)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern so that IDs in the path
// do not create new label values.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, goerr.New("collector already registered with incompatible type")
		}
		var zero T
		return zero, goerr.Wrap(err, "failed to register collector")
	}
	return collector, nil
}
