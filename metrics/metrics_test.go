package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Request("download", "ok")
	m.Request("download", "ok")
	m.Request("describe", "invalid_url")
	m.Relayed(1024)
	m.Relayed(-5)
	m.StreamFailure("after_body")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("download", "ok")); got != 2 {
		t.Errorf("download ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.bytesRelayed); got != 1024 {
		t.Errorf("bytes relayed = %v, want 1024", got)
	}
	if got := testutil.ToFloat64(m.aborts.WithLabelValues("after_body")); got != 1 {
		t.Errorf("after_body failures = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Request("describe", "ok")
	m.ProviderLookup("youtube", true)
	m.Relayed(10)
	m.StreamFailure("before_body")
	m.Selected("720p")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ProviderLookup("youtube", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `download_gateway_provider_lookups_total{provider="youtube",result="error"} 1`) {
		t.Errorf("metrics output misses provider lookup counter:\n%s", body)
	}
}
