// Package jobs runs periodic report refreshes.
package jobs

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"tweetpulse/internal/logging"
	"tweetpulse/internal/metrics"
	"tweetpulse/internal/report"
)

// Sink receives each refreshed snapshot.
type Sink func(context.Context, report.Snapshot) error

// RunRefreshOnce builds one snapshot and hands it to sink.
func RunRefreshOnce(ctx context.Context, r *report.Reporter, opts report.SnapshotOptions, sink Sink) (report.Snapshot, error) {
	start := time.Now()
	metrics.RefreshRuns.Inc()
	s := r.Snapshot(ctx, opts)
	metrics.ObserveRefreshDuration(start)
	logging.Info("refresh_once", map[string]any{
		"run_id":   s.RunID,
		"degraded": s.Degraded(),
		"total":    s.Total.Value,
		"took_ms":  time.Since(start).Milliseconds(),
	})
	if sink != nil {
		if err := sink(ctx, s); err != nil {
			return s, errors.Wrap(err, "refresh sink")
		}
	}
	return s, nil
}

// RunRefreshLoop runs RunRefreshOnce immediately and then on every tick
// until ctx is cancelled. Sink errors are logged and the loop continues.
func RunRefreshLoop(ctx context.Context, r *report.Reporter, opts report.SnapshotOptions, interval time.Duration, sink Sink) error {
	if interval <= 0 {
		return errors.Newf("refresh interval must be positive, got %s", interval)
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	if _, err := RunRefreshOnce(ctx, r, opts, sink); err != nil {
		logging.Error("refresh_once_error", map[string]any{"error": err.Error()})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("refresh_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if _, err := RunRefreshOnce(ctx, r, opts, sink); err != nil {
				logging.Error("refresh_once_error", map[string]any{"error": err.Error()})
			}
		}
	}
}
