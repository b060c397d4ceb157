package llm

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CallEvent describes one completed Complete call, retries included.
type CallEvent struct {
	Provider  string
	Model     string
	LatencyMs int64
	Attempts  int
	Success   bool
	ErrorCode string
}

// Observer receives call events for logging and metrics.
type Observer interface {
	OnCallComplete(ctx context.Context, event CallEvent)
}

type NoopObserver struct{}

func (NoopObserver) OnCallComplete(context.Context, CallEvent) {}

// LogObserver writes call events to the default slog logger.
type LogObserver struct{}

func (LogObserver) OnCallComplete(ctx context.Context, e CallEvent) {
	attrs := []any{
		"provider", e.Provider,
		"model", e.Model,
		"latency_ms", e.LatencyMs,
		"attempts", e.Attempts,
	}
	if e.Success {
		slog.DebugContext(ctx, "llm call completed", attrs...)
		return
	}
	slog.WarnContext(ctx, "llm call failed", append(attrs, "code", e.ErrorCode)...)
}

// MetricsObserver records call counts and latency on an OpenTelemetry meter.
type MetricsObserver struct {
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	calls, err := meter.Int64Counter("llm.calls", metric.WithDescription("LLM completions by outcome"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("llm.duration", metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &MetricsObserver{calls: calls, latency: latency}, nil
}

func (o *MetricsObserver) OnCallComplete(ctx context.Context, e CallEvent) {
	outcome := "ok"
	if !e.Success {
		outcome = e.ErrorCode
	}
	attrs := metric.WithAttributes(
		attribute.String("llm.provider", e.Provider),
		attribute.String("llm.model", e.Model),
		attribute.String("llm.outcome", outcome),
	)
	o.calls.Add(ctx, 1, attrs)
	o.latency.Record(ctx, float64(e.LatencyMs), attrs)
}

// Observers fans events out to each observer in order.
type Observers []Observer

func (os Observers) OnCallComplete(ctx context.Context, e CallEvent) {
	for _, o := range os {
		o.OnCallComplete(ctx, e)
	}
}
