package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetpulse/internal/config"
	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
	"tweetpulse/internal/store/sqlitestore"
)

func TestOpenSQLiteIsWritable(t *testing.T) {
	cfg := config.StoreConfig{Driver: config.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "a.db")}
	s, w, err := OpenWriter(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &sqlitestore.DB{}, s)
	assert.NotNil(t, w)
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	n, err := s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenRejectsUnknownDriverAndEmptyMongo(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "redis"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.StoreConfig{Driver: config.DriverMongo})
	assert.Error(t, err)
}

func TestLazyRetriesOpenUntilItSucceeds(t *testing.T) {
	ctx := context.Background()
	calls := 0
	l := NewLazy(config.StoreConfig{Driver: config.DriverMemory})
	l.open = func(context.Context, config.StoreConfig) (store.EventStore, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return store.NewMemory(model.Document{"result": "Success"}), nil
	}

	for range 2 {
		_, err := l.Count(ctx, nil)
		assert.True(t, store.IsUnavailable(err))
	}
	docs, err := l.Aggregate(ctx, store.Pipeline{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	n, err := l.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 3, calls, "open stops once connected")
	assert.NoError(t, l.Close())
}
