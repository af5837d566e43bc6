package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request, named after the route pattern
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes tags the current span with request, user and organization,
// and marks it as failed on 4xx/5xx. Place it after JWTAuth so the principal
// is known; the span is still open when the handler returns here.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
			if claims := GetJWTClaims(c); claims != nil {
				span.SetAttributes(
					attribute.String("user_id", claims.UserID),
					attribute.String("organization_id", claims.OrganizationID),
					attribute.String("role", claims.Role),
				)
			}
		}
		c.Next()
		if span.IsRecording() {
			markSpanStatus(span, c.Writer.Status())
		}
	}
}

func markSpanStatus(span trace.Span, status int) {
	if status < http.StatusBadRequest {
		return
	}
	msg := "Client Error"
	switch {
	case status >= http.StatusInternalServerError:
		msg = "Internal Server Error"
	case status == http.StatusUnauthorized:
		msg = "Unauthorized"
	case status == http.StatusForbidden:
		msg = "Forbidden"
	case status == http.StatusNotFound:
		msg = "Not Found"
	}
	span.SetStatus(codes.Error, msg)
	span.SetAttributes(attribute.Int("http.status_code", status))
}
