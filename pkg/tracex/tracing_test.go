package tracex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

func TestInitTraceProviderNoopWhenEmpty(t *testing.T) {
	shutdown, err := InitTraceProvider(context.Background(), "", "gatehouse", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestLoginSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartLoginSpan(context.Background(), "alice")
	EndLoginSpan(span, "invalid_credentials", 0, errors.New("invalid_credentials"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "auth.login", spans[0].Name)
	require.Equal(t, codes.Error, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "alice", attrs["gatehouse.username"])
	require.Equal(t, "invalid_credentials", attrs["gatehouse.outcome"])
	require.NotContains(t, attrs, "gatehouse.user_id")
}

func TestHTTPMiddlewareNamesSpanAfterRoute(t *testing.T) {
	exporter := setupTestTracer(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, span := StartStoreSpan(r.Context(), "find_thing")
		EndSpan(span, nil)
	})

	HTTPMiddleware(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/things/9", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	require.Equal(t, "store.find_thing", spans[0].Name)
	require.Equal(t, "GET /v1/things/{id}", spans[1].Name)
	require.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}
