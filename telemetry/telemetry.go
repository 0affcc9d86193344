// Package telemetry wires OpenTelemetry tracing and metrics.
package telemetry

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

const systemName = "flutterddl"

type IgnoreExporterErrorsHandler struct{}

func (IgnoreExporterErrorsHandler) Handle(err error) {}

// New installs global trace and meter providers exporting to collectorURL.
// Without a collector the global no-op providers stay in place.
func New(service, version string, collectorURL string) (func(), error) {
	if collectorURL == "" {
		return func() {}, nil
	}

	ctx := context.Background()

	res, err := resource.New(
		ctx,
		resource.WithHost(),
		resource.WithContainer(),
		resource.WithAttributes(semconv.ServiceNameKey.String(service), semconv.ServiceVersion(version)))
	if err != nil {
		return nil, err
	}

	te, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(collectorURL), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(te), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	me, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(collectorURL), otlpmetrichttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(
			me,
			metric.WithProducer(runtime.NewProducer()),
			metric.WithInterval(60*time.Second))))

	// gc counts, pause times and heap objects are only in the deprecated runtime metrics
	os.Setenv("OTEL_GO_X_DEPRECATED_RUNTIME_METRICS", "true")
	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(60 * time.Second)); err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)

	// swallow otel errors so they don't spam stdout
	otel.SetErrorHandler(IgnoreExporterErrorsHandler{})

	return func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(ctx)
	}, nil
}

func SetAttributes(span trace.Span, kv ...attribute.KeyValue) {
	for _, attr := range kv {
		span.SetAttributes(attr)
	}
}

func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(attribute.String("db.system.name", systemName)))
	return otel.GetTracerProvider().Tracer(systemName).Start(ctx, name, opts...)
}
