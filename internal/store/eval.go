package store

import (
	"cmp"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"tweetpulse/internal/model"
)

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func compiled(p string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patternCache[p]; ok {
		return re, nil
	}
	re, err := FoldPattern(p)
	if err != nil {
		return nil, errors.Wrapf(err, "compile pattern %q", p)
	}
	patternCache[p] = re
	return re, nil
}

// Matches evaluates f against d. A nil filter matches everything.
func Matches(d model.Document, f Filter) (bool, error) {
	switch f := f.(type) {
	case nil:
		return true, nil
	case Regex:
		s, ok := d.String(f.Field)
		if !ok {
			return false, nil
		}
		re, err := compiled(f.Pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	case Exists:
		return d.Has(f.Field), nil
	case DayRange:
		day, ok := d.Day(f.Fields...)
		if !ok {
			return false, nil
		}
		from, to := model.StartOfDay(f.From), model.StartOfDay(f.To)
		return !day.Before(from) && !day.After(to), nil
	case And:
		for _, sub := range f {
			ok, err := Matches(d, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, sub := range f {
			ok, err := Matches(d, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, errors.Newf("unsupported filter %T", f)
}

// Value evaluates a group-key expression.
func Value(d model.Document, e Expr) (any, error) {
	switch e := e.(type) {
	case Field:
		return d.Value(e.Name), nil
	case DayString:
		day, ok := d.Day(e.Fields...)
		if !ok {
			return nil, nil
		}
		return day.Format(model.DayLayout), nil
	case Classify:
		s, ok := d.String(e.Field)
		if !ok {
			return e.Default, nil
		}
		for _, r := range e.Rules {
			re, err := compiled(r.Pattern)
			if err != nil {
				return nil, err
			}
			if re.MatchString(s) {
				return r.Label, nil
			}
		}
		return e.Default, nil
	}
	return nil, errors.Newf("unsupported expression %T", e)
}

// Filtered returns the documents matching f, preserving order.
func Filtered(docs []model.Document, f Filter) ([]model.Document, error) {
	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		ok, err := Matches(d, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Evaluate runs p over docs in process. It is the reference implementation
// of the pipeline semantics and backs the memory and sqlite stores.
func Evaluate(docs []model.Document, p Pipeline) ([]model.Document, error) {
	cur := docs
	for _, st := range p {
		switch st := st.(type) {
		case Match:
			next, err := Filtered(cur, st.Filter)
			if err != nil {
				return nil, err
			}
			cur = next
		case Group:
			next, err := group(cur, st.Key)
			if err != nil {
				return nil, err
			}
			cur = next
		case Sort:
			next := make([]model.Document, len(cur))
			copy(next, cur)
			sort.SliceStable(next, func(i, j int) bool { return less(next[i], next[j], st.Keys) })
			cur = next
		case Limit:
			if st.N >= 0 && len(cur) > st.N {
				cur = cur[:st.N]
			}
		default:
			return nil, errors.Newf("unsupported stage %T", st)
		}
	}
	return cur, nil
}

func group(docs []model.Document, key Expr) ([]model.Document, error) {
	index := make(map[string]int)
	var out []model.Document
	for _, d := range docs {
		k, err := Value(d, key)
		if err != nil {
			return nil, err
		}
		id := groupIdentity(k)
		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, model.Document{GroupKeyField: k, GroupCountField: int64(0)})
		}
		out[i][GroupCountField] = out[i][GroupCountField].(int64) + 1
	}
	return out, nil
}

// groupIdentity keys values by type and content so "1" and 1 stay distinct.
func groupIdentity(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func less(a, b model.Document, keys []SortKey) bool {
	for _, k := range keys {
		c := Compare(a.Value(k.Field), b.Value(k.Field))
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

// Compare orders values: nil first, then numbers, then strings, then the
// rest by their printed form.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 0:
		return 0
	case 1:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		return cmp.Compare(fa, fb)
	case 2:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := ToFloat(v); ok {
		return 1
	}
	if _, ok := v.(string); ok {
		return 2
	}
	return 3
}

// ToFloat converts the numeric types backends produce.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ToInt64 converts a numeric group count; non-numbers read as 0.
func ToInt64(v any) int64 {
	f, ok := ToFloat(v)
	if !ok || f < 0 {
		return 0
	}
	return int64(f)
}
