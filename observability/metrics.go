package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the service's instruments. A nil *Metrics records nothing.
type Metrics struct {
	httpRequests      metric.Int64Counter
	httpDuration      metric.Float64Histogram
	transcriptions    metric.Int64Counter
	transcribeSeconds metric.Float64Histogram
	modelCache        metric.Int64Counter
	geocodeLookups    metric.Int64Counter
	analysisJobs      metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.httpRequests, err = meter.Int64Counter("http.requests",
		metric.WithDescription("HTTP requests processed")); err != nil {
		return nil, fmt.Errorf("creating http.requests: %w", err)
	}
	if m.httpDuration, err = meter.Float64Histogram("http.request.duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30, 60)); err != nil {
		return nil, fmt.Errorf("creating http.request.duration: %w", err)
	}
	if m.transcriptions, err = meter.Int64Counter("transcriptions",
		metric.WithDescription("Transcription requests by model and outcome")); err != nil {
		return nil, fmt.Errorf("creating transcriptions: %w", err)
	}
	if m.transcribeSeconds, err = meter.Float64Histogram("transcription.duration",
		metric.WithDescription("End-to-end transcription latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2, 5, 10, 20, 40, 80, 160)); err != nil {
		return nil, fmt.Errorf("creating transcription.duration: %w", err)
	}
	if m.modelCache, err = meter.Int64Counter("model.cache",
		metric.WithDescription("Model cache lookups by result")); err != nil {
		return nil, fmt.Errorf("creating model.cache: %w", err)
	}
	if m.geocodeLookups, err = meter.Int64Counter("geocode.lookups",
		metric.WithDescription("Geocode tier attempts by outcome")); err != nil {
		return nil, fmt.Errorf("creating geocode.lookups: %w", err)
	}
	if m.analysisJobs, err = meter.Int64Counter("analysis.jobs",
		metric.WithDescription("Voice record analysis jobs by final status")); err != nil {
		return nil, fmt.Errorf("creating analysis.jobs: %w", err)
	}
	return m, nil
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordTranscription records a finished transcription.
func (m *Metrics) RecordTranscription(ctx context.Context, model string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.transcriptions.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model), attribute.String("outcome", outcome)))
	m.transcribeSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("model", model)))
}

// RecordModelCache records a cache lookup; result is "hit", "load" or "error".
func (m *Metrics) RecordModelCache(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.modelCache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordGeocode records one tier attempt.
func (m *Metrics) RecordGeocode(ctx context.Context, tier, outcome string) {
	if m == nil {
		return
	}
	m.geocodeLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier), attribute.String("outcome", outcome)))
}

// RecordAnalysis records a finished analysis job.
func (m *Metrics) RecordAnalysis(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.analysisJobs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
