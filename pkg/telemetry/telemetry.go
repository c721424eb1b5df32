// Package telemetry provides OpenTelemetry distributed tracing for
// Floorgraph. It instruments the normalize, embed, search, and compare
// stages with spans, supports W3C Trace Context propagation, and
// exports to OTLP or stdout.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/floorgraph/floorgraph"

// Config holds tracing configuration.
type Config struct {
	// Enabled turns tracing on/off.
	Enabled bool

	// Exporter selects the trace exporter: "otlp", "stdout", or "none".
	Exporter string

	// Endpoint is the OTLP collector address (e.g., "localhost:4317").
	Endpoint string

	// SampleRate controls the sampling ratio (0.0 to 1.0).
	// 1.0 = sample everything, 0.1 = sample 10%.
	SampleRate float64

	// ServiceName overrides the default service name.
	ServiceName string

	// Insecure disables TLS for the OTLP exporter.
	Insecure bool
}

// DefaultConfig returns tracing defaults (disabled).
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		Exporter:    "otlp",
		Endpoint:    "localhost:4317",
		SampleRate:  1.0,
		ServiceName: "floorgraph",
		Insecure:    true,
	}
}

// Provider wraps the OTEL TracerProvider and exposes Floorgraph-specific helpers.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Init sets up the global TracerProvider based on the config.
// Returns a Provider that must be shut down with Shutdown().
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		// Return a no-op provider
		return &Provider{
			tracer: trace.NewNoopTracerProvider().Tracer(tracerName),
		}, nil
	}

	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	case "none", "":
		return &Provider{
			tracer: trace.NewNoopTracerProvider().Tracer(tracerName),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter: %q (supported: otlp, stdout, none)", cfg.Exporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("0.1.0"),
		),
		resource.WithProcessRuntimeDescription(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate < 1.0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	// Set global provider and propagator
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{
		tp:     tp,
		tracer: tp.Tracer(tracerName),
	}, nil
}

// Shutdown flushes pending spans and shuts down the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Tracer returns the Floorgraph tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// --- Span helpers for pipeline stages ---

// StartRequest creates a root span for an incoming HTTP request.
func (p *Provider) StartRequest(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "floorgraph.request",
		trace.WithAttributes(attribute.String("floorgraph.endpoint", endpoint)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartNormalize creates a span for the export normalization stage.
func (p *Provider) StartNormalize(ctx context.Context, project string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "floorgraph.normalize",
		trace.WithAttributes(attribute.String("floorgraph.normalize.project", project)),
	)
}

// StartEmbedding creates a span for the index embedding stage.
func (p *Provider) StartEmbedding(ctx context.Context, chunkCount int, model string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "floorgraph.embedding",
		trace.WithAttributes(
			attribute.Int("floorgraph.embedding.chunk_count", chunkCount),
			attribute.String("floorgraph.embedding.model", model),
		),
	)
}

// StartSearch creates a span for a similarity search.
func (p *Provider) StartSearch(ctx context.Context, k int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "floorgraph.search",
		trace.WithAttributes(attribute.Int("floorgraph.search.k", k)),
	)
}

// StartCompare creates a span for a room or project comparison.
func (p *Provider) StartCompare(ctx context.Context, aRel, bRel string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "floorgraph.compare",
		trace.WithAttributes(
			attribute.String("floorgraph.compare.a", aRel),
			attribute.String("floorgraph.compare.b", bRel),
		),
	)
}

// StartComplete creates a span for room completion mining.
func (p *Provider) StartComplete(ctx context.Context, seed string, neighbors int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "floorgraph.complete",
		trace.WithAttributes(
			attribute.String("floorgraph.complete.seed", seed),
			attribute.Int("floorgraph.complete.neighbors", neighbors),
		),
	)
}

// StartChat creates a span for a chat model call.
func (p *Provider) StartChat(ctx context.Context, model string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "floorgraph.chat",
		trace.WithAttributes(attribute.String("floorgraph.chat.model", model)),
	)
}

// RecordResult adds result attributes to a span.
func RecordResult(span trace.Span, inputCount, outputCount int, latency time.Duration) {
	span.SetAttributes(
		attribute.Int("floorgraph.result.input_count", inputCount),
		attribute.Int("floorgraph.result.output_count", outputCount),
		attribute.Int64("floorgraph.result.latency_ms", latency.Milliseconds()),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("error", true))
}
