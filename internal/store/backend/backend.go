// Package backend opens the configured event store.
package backend

import (
	"context"

	"github.com/cockroachdb/errors"

	"tweetpulse/internal/config"
	"tweetpulse/internal/store"
	"tweetpulse/internal/store/mongostore"
	"tweetpulse/internal/store/sqlitestore"
)

// Open returns the store selected by cfg.Driver. Each call opens its own
// connection; callers own and close it.
func Open(ctx context.Context, cfg config.StoreConfig) (store.EventStore, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		s, err := mongostore.Open(ctx, mongostore.Options{
			URI:        cfg.URI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		db, err := sqlitestore.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverMemory:
		return store.NewMemory(), nil
	}
	return nil, errors.Newf("unknown store driver %q", cfg.Driver)
}

// OpenWriter opens a store that accepts imports.
func OpenWriter(ctx context.Context, cfg config.StoreConfig) (store.EventStore, store.Writer, error) {
	s, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	w, ok := s.(store.Writer)
	if !ok {
		_ = s.Close()
		return nil, nil, errors.Newf("store driver %q is read-only", cfg.Driver)
	}
	return s, w, nil
}
