package storefront

import (
	"context"
	"log/slog"
)

// Telemetry records storefront events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// SlogTelemetry writes events as structured log lines.
type SlogTelemetry struct {
	Logger *slog.Logger
}

// Record logs the event with its payload as attributes.
func (t SlogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]slog.Attr, 0, len(payload))
	for k, v := range payload {
		attrs = append(attrs, slog.Any(k, v))
	}
	level := slog.LevelInfo
	if _, failed := payload["error"]; failed {
		level = slog.LevelWarn
	}
	logger.LogAttrs(ctx, level, event, attrs...)
}

// MultiTelemetry fans a record out to every sink.
type MultiTelemetry []Telemetry

// Record forwards to each non-nil sink.
func (m MultiTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	for _, t := range m {
		if t != nil {
			t.Record(ctx, event, payload)
		}
	}
}
