package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"

	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

// DayCount is the number of events on one UTC calendar day.
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

// Day formats the date as YYYY-MM-DD.
func (d DayCount) Day() string { return d.Date.Format(model.DayLayout) }

// Window returns the first and last instants of the trailing window of
// days ending on now's UTC day.
func Window(now time.Time, days int) (start, end time.Time) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	end = model.EndOfDay(now)
	start = model.StartOfDay(now).AddDate(0, 0, -(days - 1))
	return start, end
}

// TimeSeries returns one entry per day of the trailing window ending today,
// ascending, with zero for days that have no events. Events without a
// parseable date are left out.
func (e *Engine) TimeSeries(ctx context.Context, days int) (series []DayCount, err error) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	ctx, span := e.start(ctx, "time_series", attribute.Int("window_days", days))
	defer func() { finish(span, err) }()

	start, end := Window(e.now(), days)
	rows, err := e.store.Aggregate(ctx, store.Pipeline{
		store.Match{Filter: store.DayRange{Fields: model.DateFields, From: start, To: end}},
		store.Group{Key: store.DayString{Fields: model.DateFields}},
		store.Sort{Keys: []store.SortKey{{Field: store.GroupKeyField}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "time series")
	}
	buckets := make(map[time.Time]int64, len(rows))
	for _, r := range rows {
		s, ok := r.String(store.GroupKeyField)
		if !ok {
			continue
		}
		day, perr := time.Parse(model.DayLayout, s)
		if perr != nil {
			continue
		}
		buckets[day] += store.ToInt64(r.Value(store.GroupCountField))
	}
	return FillDays(buckets, start, end), nil
}

// FillDays left-joins counts onto every calendar day in [start, end].
func FillDays(counts map[time.Time]int64, start, end time.Time) []DayCount {
	first, last := model.StartOfDay(start), model.StartOfDay(end)
	var out []DayCount
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, DayCount{Date: d, Count: counts[d]})
	}
	return out
}

// DailyCounts buckets events by UTC day in process; used when documents
// are already in memory (imports, exports).
func DailyCounts(docs []model.Document) map[time.Time]int64 {
	buckets := make(map[time.Time]int64)
	for _, d := range docs {
		day, ok := d.Day(model.DateFields...)
		if !ok {
			continue
		}
		buckets[day]++
	}
	return buckets
}

// SortedDays returns the bucket keys ascending.
func SortedDays(m map[time.Time]int64) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
