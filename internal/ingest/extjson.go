package ingest

import (
	"strconv"

	"tweetpulse/internal/model"
)

// Normalize converts a decoded JSON object into a document, unwrapping
// extended-JSON values at any depth.
func Normalize(raw map[string]any) model.Document {
	d := make(model.Document, len(raw))
	for k, v := range raw {
		d[k] = unwrap(v)
	}
	return d
}

func unwrap(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if x, ok := extended(t); ok {
				return x
			}
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = unwrap(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = unwrap(e)
		}
		return out
	}
	return v
}

func extended(m map[string]any) (any, bool) {
	for k, v := range m {
		switch k {
		case "$date":
			if ts, ok := model.ParseTime(m); ok {
				return ts, true
			}
		case "$oid":
			if s, ok := v.(string); ok {
				return s, true
			}
		case "$numberLong", "$numberInt":
			if s, ok := v.(string); ok {
				if n, err := strconv.ParseInt(s, 10, 64); err == nil {
					return n, true
				}
			}
		case "$numberDouble":
			if s, ok := v.(string); ok {
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					return f, true
				}
			}
		}
	}
	return nil, false
}
