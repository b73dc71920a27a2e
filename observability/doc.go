// Package observability sets up OpenTelemetry tracing (OTLP over HTTP) and
// Prometheus metrics bridged from the OpenTelemetry meter, and holds the
// service's metric instruments.
//
//	provider, err := observability.Setup(ctx, cfg, log)
//	defer provider.Shutdown(ctx)
//	ctx, span := observability.StartSpan(ctx, "transcription.normalize")
//	defer span.End()
package observability
