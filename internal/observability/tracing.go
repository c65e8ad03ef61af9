package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for spans.
const TracerName = "github.com/vaultid/devserver"

// TracingConfig contains configuration for OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string // OTLP gRPC endpoint (e.g., "localhost:4317")
	ServiceName string
	SampleRate  float64 // 0.0 to 1.0
	Insecure    bool
}

// TracerProvider owns the SDK provider when tracing is enabled. With tracing
// off it only hands out the global tracer.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing exports spans over OTLP gRPC when cfg.Enabled. Otherwise the
// global no-op tracer is used and nothing is installed.
func InitTracing(ctx context.Context, cfg TracingConfig) (*TracerProvider, error) {
	if !cfg.Enabled {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "vaultid-devserver"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SampleRate))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &TracerProvider{provider: provider, tracer: provider.Tracer(TracerName)}, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// Tracer returns the tracer instance.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Shutdown flushes pending spans.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// ExtractSpanAttributes describes one upstream extraction call.
type ExtractSpanAttributes struct {
	Provider    string
	Model       string
	MimeType    string
	ImageBytes  int
	MaxTokens   int
	Temperature float64
}

// StartExtractSpan starts a client span for the upstream chat-completion call.
func StartExtractSpan(ctx context.Context, tracer trace.Tracer, attrs ExtractSpanAttributes) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "extract.chat_completion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.system", attrs.Provider),
			attribute.String("gen_ai.request.model", attrs.Model),
			attribute.Float64("gen_ai.request.temperature", attrs.Temperature),
			attribute.String("extract.mime_type", attrs.MimeType),
			attribute.Int("extract.image_base64_bytes", attrs.ImageBytes),
		),
	)
	if attrs.MaxTokens > 0 {
		span.SetAttributes(attribute.Int("gen_ai.request.max_tokens", attrs.MaxTokens))
	}
	return ctx, span
}

// RecordUsage records response attributes on a span.
func RecordUsage(span trace.Span, statusCode, inputTokens, outputTokens int, finishReason string) {
	span.SetAttributes(
		attribute.Int("http.response.status_code", statusCode),
		attribute.Int("gen_ai.usage.input_tokens", inputTokens),
		attribute.Int("gen_ai.usage.output_tokens", outputTokens),
		attribute.String("gen_ai.response.finish_reason", finishReason),
	)
}

// RecordError marks the span failed.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
