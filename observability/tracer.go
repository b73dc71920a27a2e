package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/lifemap/memorymap"

// Span names.
const (
	SpanNormalize  = "transcription.normalize"
	SpanModelLoad  = "transcription.model_load"
	SpanInference  = "transcription.inference"
	SpanConvert    = "transcription.script_convert"
	SpanGeocode    = "geocode.resolve"
	SpanGeocodeHit = "geocode.tier"
)

// StartSpan starts a span on the global tracer provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
