package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetpulse/internal/analytics"
	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newReporter(s store.EventStore, logBuf *bytes.Buffer) *Reporter {
	e := analytics.New(s, analytics.WithClock(func() time.Time { return now }))
	opts := []Option{WithClock(func() time.Time { return now })}
	if logBuf != nil {
		opts = append(opts, WithLogger(slog.New(slog.NewJSONHandler(logBuf, nil))))
	}
	return New(e, opts...)
}

func TestHealthyOutcomesAreNotDegraded(t *testing.T) {
	r := newReporter(store.NewMemory(
		model.Document{"action": "like", "result": "Success", "username": "@a", "date": now},
		model.Document{"action": "retweet", "result": "Failed", "rerun": "Success", "username": "@a", "date": now},
	), nil)
	ctx := context.Background()

	total := r.TotalEngagements(ctx)
	assert.False(t, total.Degraded)
	assert.EqualValues(t, 2, total.Value)
	assert.Empty(t, total.Reason())

	ratio := r.SuccessRatio(ctx)
	assert.Equal(t, 100.0, ratio.Value)

	board := r.Leaderboard(ctx, analytics.Celebrity, 5)
	require.Len(t, board.Value, 1)
	assert.Equal(t, "a", board.Value[0].Actor)
}

func TestStoreFailureDegradesEverySection(t *testing.T) {
	m := store.NewMemory(model.Document{"result": "Success"})
	m.Err = errors.New("server selection timeout")
	var logs bytes.Buffer
	r := newReporter(m, &logs)

	snap := r.Snapshot(context.Background(), SnapshotOptions{WindowDays: 7, LeaderboardLimit: 5})
	assert.True(t, snap.Degraded())
	assert.True(t, snap.Total.Degraded)
	assert.Zero(t, snap.Total.Value)
	assert.Zero(t, snap.Successful.Value)
	assert.Equal(t, 0.0, snap.Ratio.Value)
	assert.Empty(t, snap.Series.Value, "series is empty, not zero-filled, when unavailable")
	assert.NotNil(t, snap.Series.Value)
	assert.Empty(t, snap.Celebrities.Value)
	assert.Empty(t, snap.Users.Value)
	assert.True(t, snap.Comparison.Value.IsZero())
	assert.Contains(t, snap.Comparison.Reason(), "server selection timeout")
	assert.Contains(t, logs.String(), "report degraded")
	assert.NotContains(t, logs.String(), "report degraded detail", "stack only at debug")
	assert.NotContains(t, logs.String(), "\\n", "error logged as one line")
	assert.True(t, store.IsUnavailable(snap.Total.Err))
}

func TestEmptyStoreIsZeroButHealthy(t *testing.T) {
	snap := newReporter(store.NewMemory(), nil).Snapshot(context.Background(), SnapshotOptions{})
	assert.False(t, snap.Degraded())
	assert.Len(t, snap.Series.Value, 7)
	assert.Empty(t, snap.Celebrities.Value)
	assert.True(t, snap.Comparison.Value.IsZero())
	assert.Equal(t, map[analytics.Bucket]float64{analytics.Likes: 0, analytics.Retweets: 0, analytics.Comments: 0}, snap.Deltas)
}

func TestSnapshotMetadataAndJSON(t *testing.T) {
	snap := newReporter(store.NewMemory(), nil).Snapshot(context.Background(), SnapshotOptions{WindowDays: 3})
	_, err := uuid.Parse(snap.RunID)
	require.NoError(t, err)
	assert.Equal(t, now, snap.GeneratedAt)

	b, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	series := decoded["time_series"].(map[string]any)
	assert.Equal(t, false, series["degraded"])
	assert.Len(t, series["value"], 3)
	cmp := decoded["comparison"].(map[string]any)["value"].(map[string]any)
	assert.Contains(t, cmp["initial"], "retweets")
}

func TestOutcomeJSONCarriesError(t *testing.T) {
	b, err := json.Marshal(Outcome[int64]{Degraded: true, Err: errors.New("down")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":0,"degraded":true,"error":"down"}`, string(b))

	b, err = json.Marshal(Outcome[int64]{Value: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":3,"degraded":false}`, string(b))
}
