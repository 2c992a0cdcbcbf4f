package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ObserveHTTP("GET", "/screen", 200, 0.001)
	ObserveBackend("recyclers", nil, 0.02)
	ObserveBackend("types", errors.New("boom"), 0.5)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"http_requests_total",
		`backend_requests_total{endpoint="types",outcome="error"}`,
		"backend_latency_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics payload missing %q; got:\n%s", want, body)
		}
	}
}

func TestCandidateOutcomes_Counted(t *testing.T) {
	before := testutil.ToFloat64(candidateResponsesTotal.WithLabelValues(OutcomeStale))
	IncCandidateResponse(OutcomeStale)
	IncCandidateResponse(OutcomeStale)
	after := testutil.ToFloat64(candidateResponsesTotal.WithLabelValues(OutcomeStale))
	if after-before != 2 {
		t.Fatalf("stale delta=%v want 2", after-before)
	}
}

func TestMapRenders_TransitionLabel(t *testing.T) {
	before := testutil.ToFloat64(mapRendersTotal.WithLabelValues("shown"))
	IncMapRender(true)
	IncMapRender(false)
	if got := testutil.ToFloat64(mapRendersTotal.WithLabelValues("shown")) - before; got != 1 {
		t.Fatalf("shown delta=%v want 1", got)
	}
}
