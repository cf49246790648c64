package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `pulse_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `pulse_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorRecordsPipelineMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.ObserveFetch("blog", 120*time.Millisecond, 7, false)
	collector.ObserveFetch("analytics", 5*time.Second, 0, true)
	collector.ObserveBuild(300*time.Millisecond, 42)

	body := scrape(t, collector)

	if !strings.Contains(body, `pulse_pipeline_items_fetched_total{adapter="blog"} 7`) {
		t.Fatalf("items_fetched_total not recorded, body=%q", body)
	}
	if !strings.Contains(body, `pulse_pipeline_adapter_fetch_failures_total{adapter="analytics"} 1`) {
		t.Fatalf("adapter_fetch_failures_total not recorded, body=%q", body)
	}
	if !strings.Contains(body, `pulse_pipeline_feed_size 42`) {
		t.Fatalf("feed_size not recorded, body=%q", body)
	}
}

func TestNilCollectorIsNoOp(t *testing.T) {
	var collector *Collector
	collector.ObserveFetch("blog", time.Second, 1, true)
	collector.ObserveBuild(time.Second, 1)
}

func scrape(t *testing.T, collector *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}
