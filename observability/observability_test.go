package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSetupMetricsExposesPrometheus(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Config{ServiceName: "memorymapd", MetricsEnabled: true}, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() { _ = p.Shutdown(ctx) }()

	m := p.Metrics()
	if m == nil {
		t.Fatal("expected metrics instruments")
	}
	m.RecordHTTPRequest(ctx, "POST", "/api/transcribe", 200, 150*time.Millisecond)
	m.RecordModelCache(ctx, "hit")
	m.RecordGeocode(ctx, "override", "found")

	rec := httptest.NewRecorder()
	p.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"memorymap_http_requests", "memorymap_model_cache", "memorymap_geocode_lookups"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %s in exposition", want)
		}
	}
}

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "memorymapd"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.PrometheusHandler() != nil || p.Metrics() != nil {
		t.Error("expected no metrics when disabled")
	}
	// nil instruments must be safe to call
	p.Metrics().RecordTranscription(context.Background(), "small", time.Second, errors.New("x"))
}

func TestStartSpanNoop(t *testing.T) {
	ctx, span := StartSpan(context.Background(), SpanNormalize)
	if ctx == nil || span == nil {
		t.Fatal("expected span")
	}
	EndSpan(span, errors.New("boom"))
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{SampleRate: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample rate error")
	}
}
