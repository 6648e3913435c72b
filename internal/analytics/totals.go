package analytics

import (
	"context"

	"github.com/cockroachdb/errors"
)

// TotalCount returns the number of events in the store. Backends may answer
// with an estimate.
func (e *Engine) TotalCount(ctx context.Context) (n int64, err error) {
	ctx, span := e.start(ctx, "total_count")
	defer func() { finish(span, err) }()
	n, err = e.store.Count(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "total count")
	}
	return max(n, 0), nil
}

// SuccessfulCount returns the number of events that succeeded initially or
// on rerun after a failure.
func (e *Engine) SuccessfulCount(ctx context.Context) (n int64, err error) {
	ctx, span := e.start(ctx, "successful_count")
	defer func() { finish(span, err) }()
	n, err = e.store.Count(ctx, successFilter())
	if err != nil {
		return 0, errors.Wrap(err, "successful count")
	}
	return max(n, 0), nil
}

// SuccessRatio returns successful/total as a percentage in [0, 100], and 0
// for an empty store.
func (e *Engine) SuccessRatio(ctx context.Context) (float64, error) {
	total, err := e.TotalCount(ctx)
	if err != nil {
		return 0, err
	}
	successful, err := e.SuccessfulCount(ctx)
	if err != nil {
		return 0, err
	}
	return Ratio(successful, total), nil
}

// Ratio is part/whole*100 clamped to [0, 100]; 0 when whole is 0.
// An estimated total can undercount, hence the clamp.
func Ratio(part, whole int64) float64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	r := float64(part) / float64(whole) * 100
	return min(r, 100)
}
