package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Standard attribute keys for jukeboxcore spans.
var (
	AttrTaskID    = attribute.Key("jukeboxcore.task.id")
	AttrScopeID   = attribute.Key("jukeboxcore.scope.id")
	AttrTypeToken = attribute.Key("jukeboxcore.type_token")
	AttrSongID    = attribute.Key("jukeboxcore.song.id")
	AttrQueueID   = attribute.Key("jukeboxcore.queue.id")
)

// StartSpan is a convenience wrapper that starts an internal span with common attributes.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartClientSpan starts a span for an outbound call (the catalogue backend).
func StartClientSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}
