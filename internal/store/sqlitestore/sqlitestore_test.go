package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

func seed(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	now := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.Insert(context.Background(),
		model.Document{"action": "like", "result": "Success", "username": "@alice", "date": now},
		model.Document{"action": "retweet", "result": "Failed", "rerun": "Success", "date": now.Add(-24 * time.Hour)},
		model.Document{"action": "comment", "result": "Failed", "date_only": "2025-02-01"},
		model.Document{"action": "like", "result": "success!"},
	))
	return db
}

func TestCountAllAndFiltered(t *testing.T) {
	db := seed(t)
	ctx := context.Background()
	n, err := db.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	n, err = db.Count(ctx, store.Regex{Field: "result", Pattern: "success"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestAggregatePushesDownDayRange(t *testing.T) {
	db := seed(t)
	from := time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 10, 23, 59, 59, 0, time.UTC)
	out, err := db.Aggregate(context.Background(), store.Pipeline{
		store.Match{Filter: store.DayRange{Fields: model.DateFields, From: from, To: to}},
		store.Group{Key: store.DayString{Fields: model.DateFields}},
		store.Sort{Keys: []store.SortKey{{Field: store.GroupKeyField}}},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2025-02-09", out[0][store.GroupKeyField])
	assert.Equal(t, "2025-02-10", out[1][store.GroupKeyField])
	assert.EqualValues(t, 1, store.ToInt64(out[1][store.GroupCountField]))
}

func TestDatesSurviveJSONStorage(t *testing.T) {
	db := seed(t)
	out, err := db.Aggregate(context.Background(), store.Pipeline{
		store.Match{Filter: store.Exists{Field: "username"}},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	day, ok := out[0].Day(model.DateFields...)
	require.True(t, ok)
	assert.Equal(t, "2025-02-10", day.Format(model.DayLayout))
}

func TestOpenFileAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "actions.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Insert(context.Background(), model.Document{"action": "like"}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	_, err = db.Count(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err))
}

func TestUnparsableDateFallsBackToDateOnly(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, db.Insert(ctx, model.Document{"date": "garbage", "date_only": "2025-03-15"}))

	day := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	n, err := db.Count(ctx, store.DayRange{Fields: model.DateFields, From: day, To: day.Add(24*time.Hour - time.Second)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
