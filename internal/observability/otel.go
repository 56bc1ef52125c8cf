package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SpanTracer wraps a Tracer so every event also opens (and immediately
// ends) a short-lived otel span carrying the same attributes, letting
// operators correlate trace events with a distributed tracing backend
// without changing the agent loop's call sites.
type SpanTracer struct {
	inner  Tracer
	tracer trace.Tracer
}

// NewSpanTracer wraps inner, emitting otel spans under instrumentation
// name "codeagent/loop" alongside whatever inner already records.
func NewSpanTracer(inner Tracer) *SpanTracer {
	return &SpanTracer{inner: inner, tracer: otel.Tracer("codeagent/loop")}
}

func (s *SpanTracer) Emit(e Event) {
	_, span := s.tracer.Start(context.Background(), string(e.Type))
	span.SetAttributes(attribute.String("run_id", e.RunID), attribute.Int("turn_index", e.TurnIndex))
	for k, v := range e.Data {
		if str, ok := v.(string); ok {
			span.SetAttributes(attribute.String(k, str))
		}
	}
	span.End()
	if s.inner != nil {
		s.inner.Emit(e)
	}
}
