package analytics

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

// Dimension selects the actor field a leaderboard groups by.
type Dimension string

const (
	// Celebrity groups by the handle of the account whose tweet was engaged.
	Celebrity Dimension = "celebrity"
	// User groups by the display name of the acting user.
	User Dimension = "user"
)

// ParseDimension accepts "celebrity" or "user".
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case Celebrity, User:
		return d, nil
	}
	return "", errors.Newf("unknown leaderboard dimension %q (want celebrity or user)", s)
}

// Field returns the document field the dimension groups by.
func (d Dimension) Field() string {
	if d == Celebrity {
		return model.FieldUsername
	}
	return model.FieldName
}

// LeaderEntry is one ranked actor. Actor keeps the stored value; string
// celebrity handles lose one leading '@'.
type LeaderEntry struct {
	Actor any   `json:"actor"`
	Count int64 `json:"count"`
}

// Leaderboard ranks actors by event count, highest first, ties broken by
// actor key ascending, truncated to limit. The celebrity board ignores
// events without a username; the user board keeps a null-name group.
func (e *Engine) Leaderboard(ctx context.Context, dim Dimension, limit int) (entries []LeaderEntry, err error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	ctx, span := e.start(ctx, "leaderboard",
		attribute.String("dimension", string(dim)), attribute.Int("limit", limit))
	defer func() { finish(span, err) }()

	if dim != Celebrity && dim != User {
		return nil, errors.Newf("unknown leaderboard dimension %q", dim)
	}
	var p store.Pipeline
	if dim == Celebrity {
		p = append(p, store.Match{Filter: store.Exists{Field: dim.Field()}})
	}
	p = append(p,
		store.Group{Key: store.Field{Name: dim.Field()}},
		store.Sort{Keys: []store.SortKey{
			{Field: store.GroupCountField, Desc: true},
			{Field: store.GroupKeyField},
		}},
		store.Limit{N: limit},
	)
	rows, err := e.store.Aggregate(ctx, p)
	if err != nil {
		return nil, errors.Wrapf(err, "%s leaderboard", dim)
	}
	entries = make([]LeaderEntry, 0, len(rows))
	for _, r := range rows {
		actor := r.Value(store.GroupKeyField)
		if dim == Celebrity {
			actor = StripHandle(actor)
		}
		entries = append(entries, LeaderEntry{Actor: actor, Count: store.ToInt64(r.Value(store.GroupCountField))})
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// StripHandle removes exactly one leading '@' from string handles; other
// values pass through unchanged.
func StripHandle(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return strings.TrimPrefix(s, "@")
}
