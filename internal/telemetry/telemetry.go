// Package telemetry wires the gateway's OpenTelemetry tracer from
// configuration (spec.md §6's telemetry.tracing.exporters section) and
// provides span helpers for tracing plan execution (SPEC_FULL.md's
// "coordinator-level plan execution tracing" addition): the executor
// opens one "gateway.plan.dispatch" span per plan dispatch; plan state
// transitions are not recorded as span events.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/samsarahq/go/oops"
	"github.com/thunderfed/gateway/internal/config"
)

// InstrumentationName is the tracer name every gateway span is
// created under.
const InstrumentationName = "github.com/thunderfed/gateway"

// Init builds a tracer provider from cfg's configured exporters and
// installs it as the global otel tracer provider. When no exporter is
// enabled, the returned shutdown is a no-op and the global provider is
// left as the default (a no-op tracer), so instrumentation calls
// elsewhere in the gateway are always safe to make unconditionally.
func Init(ctx context.Context, serviceName string, cfg config.TracingConfig) (shutdown func(context.Context) error, err error) {
	var opts []sdktrace.TracerProviderOption

	if cfg.Exporters.Stdout != nil && cfg.Exporters.Stdout.Enabled {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, oops.Wrapf(err, "creating stdout trace exporter")
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	if cfg.Exporters.OTLP != nil && cfg.Exporters.OTLP.Enabled {
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Exporters.OTLP.Endpoint)}
		if cfg.Exporters.OTLP.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, oops.Wrapf(err, "creating otlp trace exporter")
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	if len(opts) == 0 {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, oops.Wrapf(err, "building otel resource")
	}
	opts = append(opts, sdktrace.WithResource(res))

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the package-wide tracer handle. Safe to call before
// Init; yields the global no-op tracer until a provider is installed.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span, mirroring the teacher's
// MaybeStartSpanFromContext: always safe to call, degrading silently
// to a no-op span when no tracer provider is configured.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// RecordError marks span as failed and attaches err, the otel
// equivalent of the teacher's opentracingkit.LogError.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
