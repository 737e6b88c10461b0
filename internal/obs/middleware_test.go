package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sawahraya/backend-beras/internal/obs"
)

func TestHTTPObsCountsByRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("beras", []float64{1, 10}, registry)

	handler := obs.HTTPObs{Metrics: metrics}.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/carts/abc123/bags", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/carts/{id}/bags"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201", rec.Code)
	}

	// counter labels carry the pattern, not the concrete cart id
	got := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodPost, "/api/v1/carts/{id}/bags", "201"))
	if got != 1 {
		t.Fatalf("counter = %v, want 1", got)
	}
	if samples := testutil.CollectAndCount(metrics.ReqDur); samples == 0 {
		t.Fatal("expected a latency sample")
	}
	if inFlight := testutil.ToFloat64(metrics.InFlight); inFlight != 0 {
		t.Fatalf("in-flight gauge = %v after completion, want 0", inFlight)
	}
}

func TestHTTPObsNilMetricsPassthrough(t *testing.T) {
	called := false
	handler := obs.HTTPObs{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("handler should run unchanged without metrics")
	}
}
