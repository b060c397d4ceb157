package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/templui/goalcoach/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a span per request and records request count and duration.
// Routes are labelled with the matched mux pattern, so it must wrap the mux
// directly to see r.Pattern.
func Tracing(next http.Handler) http.Handler {
	tracer := telemetry.Tracer("goalcoach/http")
	meter := telemetry.Meter("goalcoach/http")
	requests, _ := meter.Int64Counter("http.server.request_count",
		metric.WithDescription("HTTP requests served"),
	)
	duration, _ := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration (ms)"),
		metric.WithUnit("ms"),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.url", r.URL.Path),
			),
		)
		defer span.End()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", sw.statusCode),
		)
		if sw.statusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
		}

		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.status_code", strconv.Itoa(sw.statusCode)),
		)
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	})
}
