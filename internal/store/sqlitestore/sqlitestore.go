// Package sqlitestore keeps action-event documents in a local SQLite file.
// Documents are stored as JSON next to an indexed, normalized day column so
// day-range matches can be pushed into SQL; everything else is evaluated
// in process with store.Evaluate.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"tweetpulse/internal/metrics"
	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

// DB wraps a SQLite database used as an event store.
type DB struct{ sql *sql.DB }

var (
	_ store.EventStore = (*DB)(nil)
	_ store.Writer     = (*DB)(nil)
)

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, store.Unavailable(err, "open")
		}
	}
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Unavailable(err, "open")
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		d.SetMaxOpenConns(1)
	} else if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, store.Unavailable(err, "open")
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, store.Unavailable(err, "migrate")
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS actions (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  day TEXT,
	  doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actions_day ON actions(day);
	`)
	return err
}

// Insert stores documents in a single transaction.
func (d *DB) Insert(ctx context.Context, docs ...model.Document) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable(err, "insert")
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO actions(day, doc) VALUES(?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return store.Unavailable(err, "insert")
	}
	defer stmt.Close()
	for _, doc := range docs {
		b, err := json.Marshal(doc)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "encode document")
		}
		var day *string
		if t, ok := doc.Day(model.DateFields...); ok {
			s := t.Format(model.DayLayout)
			day = &s
		}
		if _, err := stmt.ExecContext(ctx, day, string(b)); err != nil {
			_ = tx.Rollback()
			return store.Unavailable(err, "insert")
		}
	}
	return store.Unavailable(tx.Commit(), "insert")
}

// Count counts all rows in SQL; filtered counts are evaluated in process.
func (d *DB) Count(ctx context.Context, f store.Filter) (int64, error) {
	defer metrics.ObserveStoreQuery("sqlite", "count", time.Now())
	if f == nil {
		var n int64
		if err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions`).Scan(&n); err != nil {
			return 0, store.Unavailable(err, "count")
		}
		return n, nil
	}
	docs, err := d.load(ctx, f)
	if err != nil {
		return 0, err
	}
	matched, err := store.Filtered(docs, f)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Aggregate loads candidate rows and evaluates p over them.
func (d *DB) Aggregate(ctx context.Context, p store.Pipeline) ([]model.Document, error) {
	defer metrics.ObserveStoreQuery("sqlite", "aggregate", time.Now())
	var first store.Filter
	if len(p) > 0 {
		if m, ok := p[0].(store.Match); ok {
			first = m.Filter
		}
	}
	docs, err := d.load(ctx, first)
	if err != nil {
		return nil, err
	}
	return store.Evaluate(docs, p)
}

// load returns every document, narrowed by day when f is a DayRange.
func (d *DB) load(ctx context.Context, f store.Filter) ([]model.Document, error) {
	var rows *sql.Rows
	var err error
	if r, ok := f.(store.DayRange); ok {
		rows, err = d.sql.QueryContext(ctx, `SELECT doc FROM actions WHERE day>=? AND day<=? ORDER BY id`,
			r.From.UTC().Format(model.DayLayout), r.To.UTC().Format(model.DayLayout))
	} else {
		rows, err = d.sql.QueryContext(ctx, `SELECT doc FROM actions ORDER BY id`)
	}
	if err != nil {
		return nil, store.Unavailable(err, "load")
	}
	defer rows.Close()
	var out []model.Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, store.Unavailable(err, "scan")
		}
		var doc model.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			// unreadable rows are skipped like any other malformed record
			continue
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable(err, "load")
	}
	return out, nil
}
