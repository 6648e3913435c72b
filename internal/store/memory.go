package store

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"tweetpulse/internal/model"
)

// Memory is a slice-backed store. The zero value is empty and ready to use.
type Memory struct {
	mu     sync.RWMutex
	docs   []model.Document
	closed bool
	// Err, when set, is returned (marked unavailable) from every read.
	Err error
}

// NewMemory returns a store holding docs.
func NewMemory(docs ...model.Document) *Memory {
	m := &Memory{}
	m.docs = append(m.docs, docs...)
	return m
}

func (m *Memory) snapshot() ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errors.New("memory store closed")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Document, len(m.docs))
	copy(out, m.docs)
	return out, nil
}

func (m *Memory) Count(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, Unavailable(err, "count")
	}
	docs, err := m.snapshot()
	if err != nil {
		return 0, Unavailable(err, "count")
	}
	matched, err := Filtered(docs, f)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (m *Memory) Aggregate(ctx context.Context, p Pipeline) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(err, "aggregate")
	}
	docs, err := m.snapshot()
	if err != nil {
		return nil, Unavailable(err, "aggregate")
	}
	return Evaluate(docs, p)
}

func (m *Memory) Insert(ctx context.Context, docs ...model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("memory store closed")
	}
	m.docs = append(m.docs, docs...)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
