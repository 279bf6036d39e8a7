package dispatchhandlers

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vitalvas/hermod/dispatch"
)

// defaultTracerName identifies spans created by TracingMiddleware.
const defaultTracerName = "hermod"

// TracingConfig configures the Tracing middleware behaviour.
type TracingConfig struct {
	// TracerName overrides the tracer name. Defaults to "hermod".
	TracerName string

	// TracerProvider overrides the provider spans are created from.
	// Defaults to the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// SkipFunc is an optional callback that suppresses tracing for
	// requests it returns true for.
	SkipFunc func(r *http.Request) bool
}

// TracingMiddleware returns a middleware that starts one server span per
// request. The span is named "<method> <route>" with the matched pattern, so
// span names stay low-cardinality; requests resolved to no route are named by
// method alone. Responses with a 5xx status mark the span as failed.
//
// Without an explicit TracerProvider the global one is used; configure it in
// main() before serving:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func TracingMiddleware(cfg TracingConfig) dispatch.Middleware {
	name := cfg.TracerName
	if name == "" {
		name = defaultTracerName
	}
	provider := cfg.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(name)

	skip := cfg.SkipFunc

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip != nil && skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			route := routePattern(r)
			spanName := r.Method
			if route != unmatchedRoute {
				spanName = r.Method + " " + route
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			}
			if route != unmatchedRoute {
				attrs = append(attrs, attribute.String("http.route", route))
			}

			ctx, span := tracer.Start(r.Context(), spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			sw := newStatusResponseWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}
