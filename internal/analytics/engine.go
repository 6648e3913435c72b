// Package analytics turns raw action-event documents into engagement
// metrics: totals and success ratio, a gap-filled daily series, actor
// leaderboards and the initial-run vs rerun comparison.
//
// The engine holds no state between calls. Every operation issues its own
// read against the store and returns an error when the store fails; the
// report package turns those errors into degraded defaults.
package analytics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tweetpulse/internal/store"
	"tweetpulse/internal/telemetry"
)

// Defaults used when callers pass non-positive sizes.
const (
	DefaultWindowDays       = 7
	DefaultLeaderboardLimit = 5
)

// Engine computes metrics over an event store.
type Engine struct {
	store  store.EventStore
	now    func() time.Time
	tracer trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used to anchor the time series.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New returns an engine reading from s.
func New(s store.EventStore, opts ...Option) *Engine {
	e := &Engine{store: s, now: time.Now, tracer: telemetry.Tracer()}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "analytics."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
