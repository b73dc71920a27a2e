package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	promreg "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/lifemap/memorymap/logger"
)

// Provider owns the tracer and meter providers.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *promreg.Registry
	promHandler    http.Handler
	metrics        *Metrics
	shutdown       []func(context.Context) error
}

// Setup initializes tracing and metrics per cfg. With both disabled the
// returned provider still hands out no-op Metrics.
func Setup(ctx context.Context, cfg Config, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	p := &Provider{}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("observability: resource: %w", err)
	}

	if cfg.TracingEnabled {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("observability: trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sampler(cfg.SampleRate)),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		p.tracerProvider = tp
		p.shutdown = append(p.shutdown, tp.Shutdown)
		log.Info("tracer initialized", logger.Fields("endpoint", cfg.Endpoint, "sample_rate", cfg.SampleRate))
	}

	if cfg.MetricsEnabled {
		p.registry = promreg.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(p.registry), prometheus.WithNamespace(cfg.Namespace))
		if err != nil {
			return nil, fmt.Errorf("observability: prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter), sdkmetric.WithResource(res))
		otel.SetMeterProvider(mp)
		p.meterProvider = mp
		p.promHandler = promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
		p.shutdown = append(p.shutdown, mp.Shutdown)

		if p.metrics, err = NewMetrics(mp.Meter(instrumentationName)); err != nil {
			return nil, err
		}
		log.Info("metrics initialized", logger.Fields("namespace", cfg.Namespace))
	}
	return p, nil
}

// Metrics returns the service instruments; nil (a no-op) when metrics are off.
func (p *Provider) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

// PrometheusHandler serves the registry, or nil when metrics are disabled.
func (p *Provider) PrometheusHandler() http.Handler {
	if p == nil {
		return nil
	}
	return p.promHandler
}

// Registry returns the Prometheus registry, for registering extra collectors.
func (p *Provider) Registry() *promreg.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}
