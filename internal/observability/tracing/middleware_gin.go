package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/spyai-labs/etl-gcp-splash/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Keys handlers set on the gin context so the request span can name the run it touched.
const (
	RunIDKey   = "run_id"
	SourcesKey = "sources"
)

const runsRoutePrefix = "/v1/runs"

// GinMiddleware opens a server span per request. Requests on the run routes are tagged
// with the run id and the sources of that run.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("splashetl/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + c.Request.Method + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)
		if strings.HasPrefix(route, runsRoutePrefix) {
			span.SetAttributes(SafeAttributes(runAttributes(c)...)...)
		}

		if status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				span.RecordError(SafeError(lastErr.Err))
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func runAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	runID := strings.TrimSpace(c.Param(RunIDKey))
	if runID == "" {
		runID = strings.TrimSpace(c.GetString(RunIDKey))
	}
	if runID != "" {
		attrs = append(attrs, attribute.String("etl.run_id", runID))
	}
	if sources := c.GetStringSlice(SourcesKey); len(sources) > 0 {
		attrs = append(attrs, attribute.String("etl.source", strings.Join(sources, ",")))
	}
	return attrs
}
