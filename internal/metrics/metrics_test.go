package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/forest-guardian/distwise-lulc/internal/pipeline"
)

var _ pipeline.StageObserver = (*Provider)(nil)

func TestProviderRecordsQueries(t *testing.T) {
	p := Init("test")
	p.ObserveStage("resolve", 120*time.Millisecond)
	p.ObserveQuery(pipeline.OutcomeOK, 2*time.Second)
	p.ObserveQuery(pipeline.OutcomeNotFound, time.Millisecond)
	p.ObserveQuery(pipeline.OutcomeNotFound, time.Millisecond)
	p.ObserveBatchItem(false)

	if got := testutil.ToFloat64(p.queries.WithLabelValues(pipeline.OutcomeNotFound)); got != 2 {
		t.Fatalf("not_found queries=%v want 2", got)
	}
	if got := testutil.ToFloat64(p.batchItems.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed batch items=%v want 1", got)
	}

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`lulc_stage_duration_seconds_count{stage="resolve"} 1`,
		`lulc_queries_total{outcome="ok"} 1`,
		`app_build_info{version="test"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in payload; got:\n%s", want, body)
		}
	}
}
