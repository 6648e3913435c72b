package analytics

import (
	"context"

	"github.com/cockroachdb/errors"

	"tweetpulse/internal/store"
)

// BucketCounts holds one count per bucket. Missing buckets are zero.
type BucketCounts struct {
	Likes    int64 `json:"likes"`
	Retweets int64 `json:"retweets"`
	Comments int64 `json:"comments"`
}

// Get returns the count for b.
func (c BucketCounts) Get(b Bucket) int64 {
	switch b {
	case Likes:
		return c.Likes
	case Retweets:
		return c.Retweets
	case Comments:
		return c.Comments
	}
	return 0
}

func (c *BucketCounts) add(b Bucket, n int64) {
	switch b {
	case Likes:
		c.Likes += n
	case Retweets:
		c.Retweets += n
	case Comments:
		c.Comments += n
	}
}

// IsZero reports whether every bucket is zero.
func (c BucketCounts) IsZero() bool { return c == BucketCounts{} }

// Comparison contrasts first-attempt successes with successes on either
// attempt. Rerun counts include the initial ones, so Rerun >= Initial per
// bucket.
type Comparison struct {
	Initial BucketCounts `json:"initial"`
	Rerun   BucketCounts `json:"rerun"`
}

// IsZero reports whether both sides are empty.
func (c Comparison) IsZero() bool { return c.Initial.IsZero() && c.Rerun.IsZero() }

// Deltas returns the percentage change from initial to rerun per bucket.
func (c Comparison) Deltas() map[Bucket]float64 {
	out := make(map[Bucket]float64, len(Buckets))
	for _, b := range Buckets {
		out[b] = PercentChange(c.Initial.Get(b), c.Rerun.Get(b))
	}
	return out
}

// PercentChange is (after-before)/before*100. A zero baseline yields 0 by
// policy rather than an infinite or undefined change.
func PercentChange(before, after int64) float64 {
	if before == 0 {
		return 0
	}
	return float64(after-before) / float64(before) * 100
}

// RunComparison classifies successful events into buckets twice: once for
// first-attempt success and once for success on either attempt.
func (e *Engine) RunComparison(ctx context.Context) (cmp Comparison, err error) {
	ctx, span := e.start(ctx, "run_comparison")
	defer func() { finish(span, err) }()

	if cmp.Initial, err = e.bucketCounts(ctx, initialFilter()); err != nil {
		return Comparison{}, errors.Wrap(err, "initial run counts")
	}
	if cmp.Rerun, err = e.bucketCounts(ctx, rerunFilter()); err != nil {
		return Comparison{}, errors.Wrap(err, "rerun counts")
	}
	return cmp, nil
}

func (e *Engine) bucketCounts(ctx context.Context, f store.Filter) (BucketCounts, error) {
	rows, err := e.store.Aggregate(ctx, store.Pipeline{
		store.Match{Filter: f},
		store.Group{Key: classifier()},
	})
	if err != nil {
		return BucketCounts{}, err
	}
	var c BucketCounts
	for _, r := range rows {
		label, ok := r.String(store.GroupKeyField)
		if !ok {
			continue
		}
		c.add(Bucket(label), store.ToInt64(r.Value(store.GroupCountField)))
	}
	return c, nil
}
