package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the calendar-day format used for bucketing.
const DayLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000000",
	DayLayout,
}

// Document is a semi-structured record from the twitter_actions collection.
// Absent fields read as nil.
type Document map[string]any

// Value returns the raw field value, nil when absent.
func (d Document) Value(field string) any {
	if d == nil {
		return nil
	}
	return d[field]
}

// String returns the field when it holds a string.
func (d Document) String(field string) (string, bool) {
	s, ok := d.Value(field).(string)
	return s, ok
}

// Has reports whether field is present and non-null.
func (d Document) Has(field string) bool {
	return d.Value(field) != nil
}

// Time returns the timestamp held by the first field that parses.
func (d Document) Time(fields ...string) (time.Time, bool) {
	for _, f := range fields {
		v := d.Value(f)
		if v == nil {
			continue
		}
		if t, ok := ParseTime(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Day returns the UTC calendar day of the first field that parses, truncated to midnight.
func (d Document) Day(fields ...string) (time.Time, bool) {
	t, ok := d.Time(fields...)
	if !ok {
		return time.Time{}, false
	}
	return StartOfDay(t), true
}

// ParseTime normalizes the timestamp shapes found in exports:
// time.Time, strings in common layouts, unix milliseconds, and
// extended JSON {"$date": ...} wrappers.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return ParseTime(*t)
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		return time.Time{}, false
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	case map[string]any:
		if inner, ok := t["$date"]; ok {
			if m, ok := inner.(map[string]any); ok {
				return ParseTime(m["$numberLong"])
			}
			return ParseTime(inner)
		}
	case Document:
		return ParseTime(map[string]any(t))
	}
	return time.Time{}, false
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}
