// Package mongostore reads action events from a MongoDB collection.
package mongostore

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tweetpulse/internal/metrics"
	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

// Options configures the connection.
type Options struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Store is a store.EventStore over one collection.
type Store struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

var (
	_ store.EventStore = (*Store)(nil)
	_ store.Writer     = (*Store)(nil)
)

// Open connects and pings the server.
func Open(ctx context.Context, o Options) (*Store, error) {
	if o.URI == "" {
		return nil, errors.New("mongo: empty connection uri")
	}
	if o.Database == "" {
		return nil, errors.New("mongo: empty database name")
	}
	if o.Collection == "" {
		o.Collection = store.Collection
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	copts := options.Client().
		ApplyURI(o.URI).
		SetServerSelectionTimeout(o.Timeout).
		SetConnectTimeout(o.Timeout)
	client, err := mongo.Connect(ctx, copts)
	if err != nil {
		return nil, store.Unavailable(err, "connect")
	}
	pctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()
	if err := client.Ping(pctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, store.Unavailable(err, "ping")
	}
	return &Store{
		client:  client,
		coll:    client.Database(o.Database).Collection(o.Collection),
		timeout: o.Timeout,
	}, nil
}

// Count uses the collection's estimated count for a nil filter.
func (s *Store) Count(ctx context.Context, f store.Filter) (int64, error) {
	defer metrics.ObserveStoreQuery("mongo", "count", time.Now())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if f == nil {
		n, err := s.coll.EstimatedDocumentCount(ctx)
		return n, store.Unavailable(err, "estimated count")
	}
	q, err := FilterBSON(f)
	if err != nil {
		return 0, err
	}
	n, err := s.coll.CountDocuments(ctx, q)
	return n, store.Unavailable(err, "count")
}

func (s *Store) Aggregate(ctx context.Context, p store.Pipeline) ([]model.Document, error) {
	defer metrics.ObserveStoreQuery("mongo", "aggregate", time.Now())
	stages, err := PipelineBSON(p)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cur, err := s.coll.Aggregate(ctx, stages)
	if err != nil {
		return nil, store.Unavailable(err, "aggregate")
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, store.Unavailable(err, "aggregate cursor")
	}
	out := make([]model.Document, 0, len(raw))
	for _, m := range raw {
		out = append(out, fromBSON(m))
	}
	return out, nil
}

// Insert writes docs with one unordered InsertMany. Hex string ids are
// restored to ObjectIDs.
func (s *Store) Insert(ctx context.Context, docs ...model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	defer metrics.ObserveStoreQuery("mongo", "insert", time.Now())
	batch := make([]any, 0, len(docs))
	for _, d := range docs {
		batch = append(batch, toBSON(d))
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
	return store.Unavailable(err, "insert")
}

func toBSON(d model.Document) bson.M {
	m := make(bson.M, len(d))
	for k, v := range d {
		m[k] = v
	}
	if hex, ok := d[model.FieldID].(string); ok {
		if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
			m[model.FieldID] = oid
		}
	}
	return m
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// fromBSON converts driver value types into the plain Go types the engine reads.
func fromBSON(m bson.M) model.Document {
	d := make(model.Document, len(m))
	for k, v := range m {
		d[k] = plain(v)
	}
	return d
}

func plain(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case bson.M:
		return map[string]any(fromBSON(t))
	case primitive.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	}
	return v
}
