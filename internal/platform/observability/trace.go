package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"finitefield.org/pagemaker/internal/platform/requestctx"
)

// TraceHeader echoes the trace identifier of the request span.
const TraceHeader = "X-Trace-Id"

var (
	tracer     = otel.Tracer("finitefield.org/pagemaker/internal/platform/observability")
	propagator = propagation.TraceContext{}
)

// TraceMiddleware continues an incoming W3C trace (traceparent), starts a server
// span, and stores trace metadata on the request context.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, r.Method+" "+SanitizeRoute(r.URL.Path), trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			span.SetAttributes(
				semconv.HTTPRequestMethodKey.String(SanitizeMethod(r.Method)),
				semconv.URLPath(SanitizeRoute(r.URL.Path)),
			)

			if sc := span.SpanContext(); sc.IsValid() {
				ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{
					TraceID: sc.TraceID().String(),
					SpanID:  sc.SpanID().String(),
					Sampled: sc.IsSampled(),
				})
				w.Header().Set(TraceHeader, sc.TraceID().String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
