package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/config"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/observability/metrics"
)

func newMetricsRouter() (*routerStubs, http.Handler) {
	stubs := &routerStubs{
		ingestor: &ingestorStub{},
		recorder: &recorderStub{},
		status:   &statusStub{},
		reader:   &readerStub{},
	}
	router := NewRouter(config.Config{}, stubs.ingestor, stubs.recorder, stubs.status, stubs.reader, metrics.NewHTTPServerMetrics("api"))
	return stubs, router.Handler()
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	stubs, handler := newMetricsRouter()
	stubs.reader.doc = &domain.Document{ID: "doc-1"}

	for _, path := range []string{"/healthz", "/v1/documents/doc-1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics: expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "aggregator_http_requests_total") {
		t.Fatalf("expected request counter in scrape output, got:\n%s", body)
	}
	if !strings.Contains(body, `path="/v1/documents/{document_id}"`) {
		t.Fatalf("expected normalized item path label in scrape output, got:\n%s", body)
	}
	if !strings.Contains(body, "aggregator_http_request_duration_seconds") {
		t.Fatalf("expected duration histogram in scrape output, got:\n%s", body)
	}
}

func TestMetricsEndpointAbsentWithoutCollector(t *testing.T) {
	_, handler := newTestRouter(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a collector, got %d", rec.Code)
	}
}
