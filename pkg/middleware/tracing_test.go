package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs an in-memory span exporter and restores the
// previous global tracer provider when the test ends.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		tp.Shutdown(context.Background()) //nolint:errcheck
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func tracedRouter(status int, patterns ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(Tracing("catalog"))
	for _, p := range patterns {
		r.Get(p, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})
	}
	return r
}

func spanAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_NamesSpanByRoutePattern(t *testing.T) {
	exporter := setupTestTracer(t)
	h := tracedRouter(http.StatusOK, "/api/v1/products/{id}")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/products/{id}", spans[0].Name)

	route, ok := spanAttr(spans[0], "http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/products/{id}", route.AsString())
}

func TestTracing_RecordsStatusCode(t *testing.T) {
	exporter := setupTestTracer(t)
	h := tracedRouter(http.StatusNotFound, "/api/v1/categories/{idOrSlug}")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/categories/missing", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	status, ok := spanAttr(spans[0], "http.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusNotFound), status.AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status.Code, "4xx is not a server error")
}

func TestTracing_ServerErrorSetsSpanError(t *testing.T) {
	exporter := setupTestTracer(t)
	h := tracedRouter(http.StatusInternalServerError, "/api/v1/products")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_SkipsProbePaths(t *testing.T) {
	exporter := setupTestTracer(t)
	h := tracedRouter(http.StatusOK, "/health/live", "/health/ready", "/metrics")

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Header().Get("traceparent"), path)
	}
	assert.Empty(t, exporter.GetSpans())
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	exporter := setupTestTracer(t)
	h := tracedRouter(http.StatusOK, "/api/v1/products")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
