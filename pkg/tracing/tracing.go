// Package tracing configures OpenTelemetry tracing for the engine.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Config holds tracing configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. "localhost:4317").
	OTLPEndpoint string
	Enabled      bool
	// SampleRate is the sampling ratio between 0 and 1.
	SampleRate float64
}

// Provider wraps the OpenTelemetry TracerProvider.
type Provider struct {
	provider *sdktrace.TracerProvider
	log      *zap.Logger
}

// Init installs a global tracer provider. When tracing is disabled the global
// no-op provider stays in place and Shutdown is a no-op.
func Init(ctx context.Context, cfg Config, log *zap.Logger) (*Provider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		log.Info("tracing disabled")
		return &Provider{log: log}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithTimeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("tracing initialized",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.Float64("sample_rate", cfg.SampleRate),
	)
	return &Provider{provider: tp, log: log}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Enabled reports whether a real provider was installed.
func (p *Provider) Enabled() bool { return p.provider != nil }

// Shutdown flushes and stops the tracer provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	p.log.Info("shutting down tracer provider")
	return p.provider.Shutdown(ctx)
}
