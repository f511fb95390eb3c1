package splash

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type parentCtxKey struct{}

// InstrumentClient opens a client span per attempt. tracer may be nil.
func InstrumentClient(client *resty.Client, tracer trace.Tracer) {
	if tracer == nil {
		tracer = otel.Tracer("splashetl/resty")
	}
	client.OnBeforeRequest(onBeforeRequest(tracer))
	client.OnAfterResponse(onAfterResponse)
	client.OnError(onError)
}

func onBeforeRequest(tracer trace.Tracer) resty.RequestMiddleware {
	return func(_ *resty.Client, req *resty.Request) error {
		// Retries re-run this hook; each attempt is a sibling of the caller's span.
		parent, ok := req.Context().Value(parentCtxKey{}).(context.Context)
		if !ok {
			parent = req.Context()
		}
		ctx, span := tracer.Start(parent, fmt.Sprintf("http %s", req.Method), trace.WithSpanKind(trace.SpanKindClient))
		span.SetAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.path", req.URL),
			attribute.Int("http.attempt", req.Attempt),
		)
		tracing.InjectContext(ctx, propagation.HeaderCarrier(req.Header))
		req.SetContext(context.WithValue(ctx, parentCtxKey{}, parent))
		return nil
	}
}

func onAfterResponse(_ *resty.Client, res *resty.Response) error {
	span := trace.SpanFromContext(res.Request.Context())
	defer span.End()

	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode()))
	if res.IsError() {
		span.SetStatus(codes.Error, res.Status())
	}
	return nil
}

func onError(req *resty.Request, err error) {
	span := trace.SpanFromContext(req.Context())
	defer span.End()

	span.RecordError(tracing.SafeError(err))
	span.SetStatus(codes.Error, "request failed")
}
