// Package tracex configures OpenTelemetry tracing for the auth service.
//
// Custom span attributes use the "gatehouse." prefix. Spans never carry
// passwords, tokens or OTP codes.
package tracex

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aussiebroadwan/gatehouse"

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider installs an OTLP gRPC exporter. An empty endpoint leaves
// the global no-op provider in place. The returned shutdown flushes pending
// spans.
func InitTraceProvider(ctx context.Context, endpoint, service, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(service),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartLoginSpan starts the span covering one login attempt.
func StartLoginSpan(ctx context.Context, username string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "auth.login",
		trace.WithAttributes(attribute.String("gatehouse.username", username)),
	)
}

// EndLoginSpan records the outcome and ends the span.
func EndLoginSpan(span trace.Span, outcome string, userID int64, err error) {
	span.SetAttributes(attribute.String("gatehouse.outcome", outcome))
	if userID > 0 {
		span.SetAttributes(attribute.Int64("gatehouse.user_id", userID))
	}
	if err != nil {
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}

func StartRefreshSpan(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "auth.refresh")
}

// StartStoreSpan wraps a datastore call.
func StartStoreSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.operation", op)),
	)
}

// EndSpan records err, if any, and ends span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// HTTPMiddleware opens a server span per request, named after the matched
// route once the mux has run.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := Tracer().Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
			),
		)
		defer span.End()

		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
		if r.Pattern != "" {
			span.SetName(r.Pattern)
			span.SetAttributes(semconv.HTTPRoute(r.Pattern))
		}
	})
}
