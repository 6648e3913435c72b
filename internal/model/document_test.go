package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentDayPrefersDateOverDateOnly(t *testing.T) {
	d := Document{
		FieldDate:     time.Date(2025, 3, 4, 22, 15, 0, 0, time.UTC),
		FieldDateOnly: "2025-01-01",
	}
	day, ok := d.Day(DateFields...)
	require.True(t, ok)
	assert.Equal(t, "2025-03-04", day.Format(DayLayout))
}

func TestDocumentDayFallsBackToDateOnly(t *testing.T) {
	d := Document{FieldDateOnly: "2025-01-02", FieldDate: nil}
	day, ok := d.Day(DateFields...)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), day)
}

func TestDocumentDaySkipsUnparsableDate(t *testing.T) {
	d := Document{FieldDate: "garbage", FieldDateOnly: "2025-03-15"}
	day, ok := d.Day(DateFields...)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), day)
}

func TestDocumentDayMissing(t *testing.T) {
	_, ok := Document{FieldAction: "like"}.Day(DateFields...)
	assert.False(t, ok)
	_, ok = Document{FieldDate: "not a date"}.Day(DateFields...)
	assert.False(t, ok)
}

func TestParseTimeShapes(t *testing.T) {
	want := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	cases := map[string]any{
		"rfc3339": "2025-05-06T07:08:09Z",
		"space":   "2025-05-06 07:08:09",
		"millis":  want.UnixMilli(),
		"float":   float64(want.UnixMilli()),
		"extjson": map[string]any{"$date": "2025-05-06T07:08:09Z"},
		"numlong": map[string]any{"$date": map[string]any{"$numberLong": "1746515289000"}},
		"time":    want.In(time.FixedZone("x", 3600)),
	}
	for name, v := range cases {
		got, ok := ParseTime(v)
		require.True(t, ok, name)
		assert.True(t, want.Equal(got), "%s: got %s", name, got)
	}
}

func TestEventFromDocument(t *testing.T) {
	d := Document{
		FieldAction:   "Like tweet",
		FieldResult:   "Success: liked",
		FieldUsername: "@alice",
		FieldName:     7,
		FieldDate:     map[string]any{"$date": "2025-01-01T10:00:00Z"},
	}
	e := EventFromDocument(d)
	want := ActionEvent{Action: "Like tweet", Result: "Success: liked", Username: "@alice", Date: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	assert.Equal(t, want, e)
	assert.False(t, e.IsZero())
	assert.True(t, EventFromDocument(Document{"other": 1}).IsZero())
}

func TestNonStringFieldReadsAsAbsent(t *testing.T) {
	d := Document{FieldUsername: 42}
	_, ok := d.String(FieldUsername)
	assert.False(t, ok)
	assert.True(t, d.Has(FieldUsername))
}
