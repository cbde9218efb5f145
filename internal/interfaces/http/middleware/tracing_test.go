package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/trendstep/storefront/internal/infrastructure/logger"
)

func tracedRouter(rec *tracetest.SpanRecorder) *gin.Engine {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	r := gin.New()
	r.Use(RequestID())
	r.Use(Tracing(TracingConfig{
		ServiceName: "storefront-test",
		Enabled:     true,
		Options:     []otelgin.Option{otelgin.WithTracerProvider(tp)},
	}))
	r.Use(func(c *gin.Context) {
		c.Set(logger.GinSessionIDKey, "sid-9")
		c.Next()
	})
	r.Use(SpanAttributes(), SpanErrorMarker())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/missing", func(c *gin.Context) { c.String(http.StatusNotFound, "nope") })
	r.GET("/boom", func(c *gin.Context) { c.String(http.StatusServiceUnavailable, "down") })
	return r
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing(t *testing.T) {
	t.Run("span carries request and session ids", func(t *testing.T) {
		rec := tracetest.NewSpanRecorder()
		serve(tracedRouter(rec), "GET", "/ok", map[string]string{RequestIDHeader: "req-1"})

		spans := rec.Ended()
		require.Len(t, spans, 1)
		attrs := spanAttrs(spans[0])
		assert.Equal(t, "req-1", attrs["request_id"].AsString())
		assert.Equal(t, "sid-9", attrs["session_id"].AsString())
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("client errors keep the span ok", func(t *testing.T) {
		rec := tracetest.NewSpanRecorder()
		serve(tracedRouter(rec), "GET", "/missing", nil)

		spans := rec.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, int64(404), spanAttrs(spans[0])["http.status_code"].AsInt64())
	})

	t.Run("server errors mark the span", func(t *testing.T) {
		rec := tracetest.NewSpanRecorder()
		serve(tracedRouter(rec), "GET", "/boom", nil)

		spans := rec.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("disabled tracing passes through", func(t *testing.T) {
		r := gin.New()
		r.Use(Tracing(TracingConfig{Enabled: false}))
		r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		assert.Equal(t, http.StatusOK, serve(r, "GET", "/ok", nil).Code)
	})
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	mw, err := Metrics(mp.Meter("test"))
	require.NoError(t, err)

	r := gin.New()
	r.Use(mw)
	r.GET("/api/v1/cart", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	serve(r, "GET", "/api/v1/cart", nil)
	serve(r, "GET", "/api/v1/cart", nil)
	serve(r, "GET", "/nowhere", nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.server.request.count" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("http.route")
				counts[route.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), counts["/api/v1/cart"])
	assert.Equal(t, int64(1), counts["unmatched"])
}
