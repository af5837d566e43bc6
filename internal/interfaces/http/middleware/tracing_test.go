package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	r := gin.New()
	r.Use(Tracing(TracingConfig{ServiceName: "compia-test"}))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	newRecorder(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Empty(t, sr.Ended())
}

func TestTracing_AttributesAndStatus(t *testing.T) {
	sr := setupTestTracer(t)
	svc := newTestJWTService()
	pair, input := newTestTokenPair(t, svc, "inspector")

	r := gin.New()
	r.Use(RequestID(), Tracing(TracingConfig{ServiceName: "compia-test", Enabled: true}),
		JWTAuth(DefaultJWTConfig(svc)), SpanAttributes())
	r.GET("/api/test", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := bearer(pair.AccessToken)
	req.Header.Set(RequestIDHeader, "req-1")
	newRecorder(r, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	got := attrs(span)
	assert.Equal(t, "req-1", got["request_id"].AsString())
	assert.Equal(t, input.UserID.String(), got["user_id"].AsString())
	assert.Equal(t, input.OrganizationID.String(), got["organization_id"].AsString())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "Not Found", span.Status().Description)
}

func TestTracing_SuccessKeepsStatusUnset(t *testing.T) {
	sr := setupTestTracer(t)
	r := gin.New()
	r.Use(Tracing(TracingConfig{ServiceName: "compia-test", Enabled: true}), SpanAttributes())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	newRecorder(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}
