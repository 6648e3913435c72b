package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

var fixedNow = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func engineFor(docs ...model.Document) *Engine {
	return New(store.NewMemory(docs...), WithClock(func() time.Time { return fixedNow }))
}

func doc(action, result, rerun string) model.Document {
	d := model.Document{"action": action, "result": result}
	if rerun != "" {
		d["rerun"] = rerun
	}
	return d
}

func TestTotalsScenario(t *testing.T) {
	var docs []model.Document
	for i := 0; i < 6; i++ {
		docs = append(docs, doc("like", "Success: liked", ""))
	}
	docs = append(docs,
		doc("retweet", "Failed", "Success"),
		doc("comment", "failed: timeout", "SUCCESS after retry"),
		doc("like", "Failed", "Failed"),
		doc("comment", "Failed", ""),
	)
	e := engineFor(docs...)
	ctx := context.Background()

	total, err := e.TotalCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, total)

	ok, err := e.SuccessfulCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 8, ok)

	ratio, err := e.SuccessRatio(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, ratio, 1e-9)
}

func TestRerunSuccessNeedsRecordedFailure(t *testing.T) {
	// a rerun success only counts when the first attempt is marked failed
	e := engineFor(doc("like", "pending", "Success"))
	n, err := e.SuccessfulCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEmptyStoreScenario(t *testing.T) {
	e := engineFor()
	ctx := context.Background()

	total, err := e.TotalCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	ratio, err := e.SuccessRatio(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ratio)

	series, err := e.TimeSeries(ctx, 7)
	require.NoError(t, err)
	require.Len(t, series, 7)
	for _, d := range series {
		assert.Zero(t, d.Count)
	}

	board, err := e.Leaderboard(ctx, Celebrity, 5)
	require.NoError(t, err)
	assert.Empty(t, board)
	assert.NotNil(t, board)

	cmp, err := e.RunComparison(ctx)
	require.NoError(t, err)
	assert.True(t, cmp.IsZero())
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.0, Ratio(0, 0))
	assert.Equal(t, 0.0, Ratio(5, 0))
	assert.Equal(t, 50.0, Ratio(1, 2))
	assert.Equal(t, 100.0, Ratio(12, 10), "estimated totals are clamped")
}

func TestTimeSeriesGapFillsWindowEndingToday(t *testing.T) {
	e := engineFor(
		model.Document{"date": fixedNow},
		model.Document{"date": fixedNow.Add(-1 * time.Hour)},
		model.Document{"date": "2025-03-12T08:00:00Z"},
		model.Document{"date_only": "2025-03-09"},
		model.Document{"date_only": "2025-03-08"}, // one day before the window
		model.Document{"date": "2025-03-16T00:00:01Z"},
		model.Document{"action": "like"}, // no date
	)
	series, err := e.TimeSeries(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, series, 7)

	want := map[string]int64{"2025-03-09": 1, "2025-03-12": 1, "2025-03-15": 2}
	for i, d := range series {
		expectDay := time.Date(2025, 3, 9+i, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, expectDay, d.Date)
		assert.Equal(t, want[d.Day()], d.Count, d.Day())
	}
}

func TestTimeSeriesDefaultWindow(t *testing.T) {
	series, err := engineFor().TimeSeries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, series, DefaultWindowDays)
	assert.Equal(t, "2025-03-15", series[len(series)-1].Day())
}

func TestTimeSeriesStoreFailureReturnsNothing(t *testing.T) {
	m := store.NewMemory(model.Document{"date": fixedNow})
	m.Err = errors.New("no reachable servers")
	e := New(m, WithClock(func() time.Time { return fixedNow }))
	series, err := e.TimeSeries(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err))
	assert.Empty(t, series)
}

func TestFillDays(t *testing.T) {
	start := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 2, 23, 59, 59, 0, time.UTC)
	got := FillDays(map[time.Time]int64{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC): 4}, start, end)
	require.Len(t, got, 4)
	assert.Equal(t, "2024-12-30", got[0].Day())
	assert.EqualValues(t, 4, got[2].Count)
	assert.Equal(t, "2025-01-02", got[3].Day())
}

func TestDailyCountsAndSortedDays(t *testing.T) {
	m := DailyCounts([]model.Document{
		{"date": "2025-01-02T10:00:00Z"}, {"date_only": "2025-01-01"}, {"date": "2025-01-02T11:00:00Z"}, {},
	})
	days := SortedDays(m)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-01-01", days[0].Format(model.DayLayout))
	assert.EqualValues(t, 2, m[days[1]])
}

func TestCelebrityLeaderboard(t *testing.T) {
	var docs []model.Document
	add := func(n int, username any) {
		for i := 0; i < n; i++ {
			docs = append(docs, model.Document{"username": username})
		}
	}
	add(3, "@Alice")
	add(1, "Bob")
	add(4, nil)
	docs = append(docs, model.Document{"action": "like"})

	board, err := engineFor(docs...).Leaderboard(context.Background(), Celebrity, 5)
	require.NoError(t, err)
	assert.Equal(t, []LeaderEntry{{Actor: "Alice", Count: 3}, {Actor: "Bob", Count: 1}}, board)
}

func TestLeaderboardOrderingAndLimit(t *testing.T) {
	var docs []model.Document
	for name, n := range map[string]int{"@a": 2, "@b": 5, "@c": 2, "@d": 1, "@e": 3, "@f": 4, "@g": 1} {
		for i := 0; i < n; i++ {
			docs = append(docs, model.Document{"username": name})
		}
	}
	board, err := engineFor(docs...).Leaderboard(context.Background(), Celebrity, 0)
	require.NoError(t, err)
	require.Len(t, board, DefaultLeaderboardLimit)
	var actors []any
	for i, b := range board {
		actors = append(actors, b.Actor)
		assert.NotEqual(t, '@', []rune(b.Actor.(string))[0])
		if i > 0 {
			assert.LessOrEqual(t, b.Count, board[i-1].Count)
		}
	}
	assert.Equal(t, []any{"b", "f", "e", "a", "c"}, actors, "ties resolve by key ascending")
}

func TestUserLeaderboardKeepsNullGroupAndNonStrings(t *testing.T) {
	board, err := engineFor(
		model.Document{"name": "@Carol"},
		model.Document{"name": "@Carol"},
		model.Document{"name": 7},
		model.Document{},
	).Leaderboard(context.Background(), User, 5)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, LeaderEntry{Actor: "@Carol", Count: 2}, board[0], "user names are not handle-normalized")
	assert.Equal(t, LeaderEntry{Actor: nil, Count: 1}, board[1])
	assert.Equal(t, LeaderEntry{Actor: 7, Count: 1}, board[2])
}

func TestCelebrityLabelStripsOneAt(t *testing.T) {
	board, err := engineFor(model.Document{"username": "@@alice"}).Leaderboard(context.Background(), Celebrity, 5)
	require.NoError(t, err)
	assert.Equal(t, []LeaderEntry{{Actor: "@alice", Count: 1}}, board)
}

func TestCelebrityGroupsBeforeStripping(t *testing.T) {
	board, err := engineFor(
		model.Document{"username": "@Alice"},
		model.Document{"username": "@Alice"},
		model.Document{"username": "Alice"},
	).Leaderboard(context.Background(), Celebrity, 5)
	require.NoError(t, err)
	assert.Equal(t, []LeaderEntry{{Actor: "Alice", Count: 2}, {Actor: "Alice", Count: 1}}, board)
}

func TestStripHandle(t *testing.T) {
	assert.Equal(t, "alice", StripHandle("@alice"))
	assert.Equal(t, "@alice", StripHandle("@@alice"))
	assert.Equal(t, "bob", StripHandle("bob"))
	assert.Equal(t, 12, StripHandle(12))
	assert.Nil(t, StripHandle(nil))
}

func TestParseDimension(t *testing.T) {
	d, err := ParseDimension(" Celebrity ")
	require.NoError(t, err)
	assert.Equal(t, Celebrity, d)
	_, err = ParseDimension("team")
	assert.Error(t, err)

	_, err = engineFor().Leaderboard(context.Background(), Dimension("team"), 5)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Likes, Classify("Like tweet"))
	assert.Equal(t, Likes, Classify("unlike then like"))
	assert.Equal(t, Retweets, Classify("Repost"))
	assert.Equal(t, Retweets, Classify("retweet"))
	assert.Equal(t, Comments, Classify("Reply"))
	assert.Equal(t, Comments, Classify(""))
}

func TestRunComparison(t *testing.T) {
	e := engineFor(
		doc("Like tweet", "Success: liked", ""),
		doc("retweet", "Failed", "Success"),
		doc("Comment", "success", "success"),
		doc("comment", "Failed", "failed"),
		doc("Repost", "SUCCESS", ""),
		model.Document{"result": "Success"},
	)
	cmp, err := e.RunComparison(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BucketCounts{Likes: 1, Retweets: 1, Comments: 2}, cmp.Initial)
	assert.Equal(t, BucketCounts{Likes: 1, Retweets: 2, Comments: 2}, cmp.Rerun)
	for _, b := range Buckets {
		assert.GreaterOrEqual(t, cmp.Rerun.Get(b), cmp.Initial.Get(b), b)
	}
	d := cmp.Deltas()
	assert.Equal(t, 0.0, d[Likes])
	assert.Equal(t, 100.0, d[Retweets])
	assert.Equal(t, 0.0, d[Comments])
}

func TestRerunOnlySuccessIsNotInitial(t *testing.T) {
	cmp, err := engineFor(doc("retweet", "Failed", "Success")).RunComparison(context.Background())
	require.NoError(t, err)
	assert.Zero(t, cmp.Initial.Retweets)
	assert.EqualValues(t, 1, cmp.Rerun.Retweets)
	assert.Equal(t, 0.0, cmp.Deltas()[Retweets], "zero baseline yields zero change")
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentChange(0, 10))
	assert.Equal(t, 50.0, PercentChange(10, 15))
	assert.Equal(t, -20.0, PercentChange(10, 8))
}

func TestComparisonStoreFailure(t *testing.T) {
	m := store.NewMemory()
	m.Err = errors.New("auth failed")
	cmp, err := New(m).RunComparison(context.Background())
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err))
	assert.True(t, cmp.IsZero())
}
