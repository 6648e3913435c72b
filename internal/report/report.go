// Package report is the always-returns surface over the analytics engine.
// Store failures never escape: each call yields the documented default and
// flags the outcome as degraded so callers can tell "no data" from "store
// down".
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/metrics"
)

// Outcome carries a value plus whether it is a fallback.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Err      error
}

// Reason returns the failure message, empty when the outcome is healthy.
func (o Outcome[T]) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type outcomeJSON[T any] struct {
	Value    T      `json:"value"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

// MarshalJSON adds the failure message as "error".
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeJSON[T]{Value: o.Value, Degraded: o.Degraded, Error: o.Reason()})
}

// Reporter exposes the reporting operations.
type Reporter struct {
	engine *analytics.Engine
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option { return func(r *Reporter) { r.log = l } }

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option { return func(r *Reporter) { r.now = now } }

// New wraps an engine.
func New(e *analytics.Engine, opts ...Option) *Reporter {
	r := &Reporter{engine: e, log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

func run[T any](ctx context.Context, r *Reporter, op string, fallback T, f func(context.Context) (T, error)) Outcome[T] {
	metrics.IncReportCall(op)
	v, err := f(ctx)
	if err != nil {
		metrics.IncReportDegraded(op)
		r.log.ErrorContext(ctx, "report degraded", "op", op, "error", err.Error())
		r.log.DebugContext(ctx, "report degraded detail", "op", op, "stack", fmt.Sprintf("%+v", err))
		return Outcome[T]{Value: fallback, Degraded: true, Err: err}
	}
	return Outcome[T]{Value: v}
}

// TotalEngagements returns the event count, 0 when degraded.
func (r *Reporter) TotalEngagements(ctx context.Context) Outcome[int64] {
	return run(ctx, r, "total_engagements", 0, r.engine.TotalCount)
}

// SuccessfulEngagements returns the successful event count, 0 when degraded.
func (r *Reporter) SuccessfulEngagements(ctx context.Context) Outcome[int64] {
	return run(ctx, r, "successful_engagements", 0, r.engine.SuccessfulCount)
}

// SuccessRatio returns the success percentage, 0 when degraded.
func (r *Reporter) SuccessRatio(ctx context.Context) Outcome[float64] {
	return run(ctx, r, "success_ratio", 0, r.engine.SuccessRatio)
}

// EngagementTimeSeries returns the gap-filled daily series. A degraded
// outcome carries an empty series, never a partial one.
func (r *Reporter) EngagementTimeSeries(ctx context.Context, windowDays int) Outcome[[]analytics.DayCount] {
	return run(ctx, r, "engagement_time_series", []analytics.DayCount{}, func(ctx context.Context) ([]analytics.DayCount, error) {
		return r.engine.TimeSeries(ctx, windowDays)
	})
}

// Leaderboard returns the top actors for dim, empty when degraded.
func (r *Reporter) Leaderboard(ctx context.Context, dim analytics.Dimension, limit int) Outcome[[]analytics.LeaderEntry] {
	return run(ctx, r, "leaderboard_"+string(dim), []analytics.LeaderEntry{}, func(ctx context.Context) ([]analytics.LeaderEntry, error) {
		return r.engine.Leaderboard(ctx, dim, limit)
	})
}

// RunComparison returns initial vs rerun bucket counts, all zero when degraded.
func (r *Reporter) RunComparison(ctx context.Context) Outcome[analytics.Comparison] {
	return run(ctx, r, "run_comparison", analytics.Comparison{}, r.engine.RunComparison)
}

// Snapshot is every report section gathered in one pass.
type Snapshot struct {
	RunID       string                           `json:"run_id"`
	GeneratedAt time.Time                        `json:"generated_at"`
	Total       Outcome[int64]                   `json:"total"`
	Successful  Outcome[int64]                   `json:"successful"`
	Ratio       Outcome[float64]                 `json:"success_ratio"`
	Series      Outcome[[]analytics.DayCount]    `json:"time_series"`
	Celebrities Outcome[[]analytics.LeaderEntry] `json:"celebrities"`
	Users       Outcome[[]analytics.LeaderEntry] `json:"users"`
	Comparison  Outcome[analytics.Comparison]    `json:"comparison"`
	Deltas      map[analytics.Bucket]float64     `json:"deltas"`
}

// Degraded reports whether any section fell back to defaults.
func (s Snapshot) Degraded() bool {
	return s.Total.Degraded || s.Successful.Degraded || s.Ratio.Degraded ||
		s.Series.Degraded || s.Celebrities.Degraded || s.Users.Degraded ||
		s.Comparison.Degraded
}

// SnapshotOptions sizes the series and leaderboards.
type SnapshotOptions struct {
	WindowDays       int
	LeaderboardLimit int
}

// Snapshot runs every section sequentially.
func (r *Reporter) Snapshot(ctx context.Context, o SnapshotOptions) Snapshot {
	s := Snapshot{RunID: uuid.NewString(), GeneratedAt: r.now().UTC()}
	s.Total = r.TotalEngagements(ctx)
	s.Successful = r.SuccessfulEngagements(ctx)
	s.Ratio = r.SuccessRatio(ctx)
	s.Series = r.EngagementTimeSeries(ctx, o.WindowDays)
	s.Celebrities = r.Leaderboard(ctx, analytics.Celebrity, o.LeaderboardLimit)
	s.Users = r.Leaderboard(ctx, analytics.User, o.LeaderboardLimit)
	s.Comparison = r.RunComparison(ctx)
	s.Deltas = s.Comparison.Value.Deltas()
	return s
}
