package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/service/metrics"
)

func newCollector(t *testing.T) *metrics.Collector {
	t.Helper()
	c, err := metrics.New(prometheus.NewRegistry())
	gt.NoError(t, err).Required()
	return c
}

func TestCollector_RecordOperation(t *testing.T) {
	c := newCollector(t)
	c.RecordOperation("add", nil, 5*time.Millisecond)
	c.RecordOperation("add", nil, 5*time.Millisecond)
	c.RecordOperation("delete", goerr.New("forbidden"), time.Millisecond)

	gt.Value(t, testutil.ToFloat64(c.Operations.WithLabelValues("add", "ok"))).Equal(2.0)
	gt.Value(t, testutil.ToFloat64(c.Operations.WithLabelValues("delete", "error"))).Equal(1.0)
	gt.Value(t, testutil.CollectAndCount(c.Durations)).Equal(2)
}

func TestCollector_RecordTree(t *testing.T) {
	c := newCollector(t)
	c.RecordTree(model.Totals{ExpectedMin: 12.5, ExpectedMax: 40, Nodes: 6, Leaves: 3})

	gt.Value(t, testutil.ToFloat64(c.Nodes)).Equal(6.0)
	gt.Value(t, testutil.ToFloat64(c.Leaves)).Equal(3.0)
	gt.Value(t, testutil.ToFloat64(c.ExpectedMin)).Equal(12.5)
	gt.Value(t, testutil.ToFloat64(c.ExpectedMax)).Equal(40.0)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *metrics.Collector
	c.RecordOperation("add", nil, time.Second)
	c.RecordTree(model.Totals{})
}

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := metrics.New(reg)
	gt.NoError(t, err).Required()
	second, err := metrics.New(reg)
	gt.NoError(t, err).Required()

	first.RecordOperation("rename", nil, time.Millisecond)
	gt.Value(t, testutil.ToFloat64(second.Operations.WithLabelValues("rename", "ok"))).Equal(1.0)
}

func TestCollector_HandlerAndMiddleware(t *testing.T) {
	c := newCollector(t)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/nodes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", c.Handler())

	for _, path := range []string{"/api/nodes/1", "/api/nodes/2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		gt.Value(t, rr.Code).Equal(http.StatusNotFound)
	}
	gt.Value(t, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/nodes/{id}", "404"))).Equal(2.0)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	gt.Value(t, rr.Code).Equal(http.StatusOK)
	body, err := io.ReadAll(rr.Body)
	gt.NoError(t, err).Required()
	gt.S(t, string(body)).Contains("risktree_http_requests_total")
}
