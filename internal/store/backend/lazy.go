package backend

import (
	"context"
	"log/slog"
	"sync"

	"tweetpulse/internal/config"
	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

// Lazy is an EventStore that opens its backend on first use and retries the
// open on every read until it succeeds. Reads made while the backend cannot
// be opened fail with ErrUnavailable.
type Lazy struct {
	cfg  config.StoreConfig
	open func(context.Context, config.StoreConfig) (store.EventStore, error)

	mu sync.Mutex
	s  store.EventStore
}

// NewLazy returns a store that connects on demand.
func NewLazy(cfg config.StoreConfig) *Lazy {
	return &Lazy{cfg: cfg, open: Open}
}

func (l *Lazy) backend(ctx context.Context) (store.EventStore, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.s != nil {
		return l.s, nil
	}
	s, err := l.open(ctx, l.cfg)
	if err != nil {
		if store.IsUnavailable(err) {
			return nil, err
		}
		return nil, store.Unavailable(err, "open")
	}
	slog.InfoContext(ctx, "event store connected", "driver", l.cfg.Driver)
	l.s = s
	return s, nil
}

func (l *Lazy) Count(ctx context.Context, f store.Filter) (int64, error) {
	s, err := l.backend(ctx)
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, f)
}

func (l *Lazy) Aggregate(ctx context.Context, p store.Pipeline) ([]model.Document, error) {
	s, err := l.backend(ctx)
	if err != nil {
		return nil, err
	}
	return s.Aggregate(ctx, p)
}

// Close closes the backend if it was ever opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.s == nil {
		return nil
	}
	err := l.s.Close()
	l.s = nil
	return err
}
