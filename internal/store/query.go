package store

import (
	"regexp"
	"time"
)

// Filter is a predicate over documents. Filters are plain data so backends
// can translate them; Evaluate gives the reference semantics.
type Filter interface{ isFilter() }

// Regex matches when the field holds a string containing a case-insensitive
// match of Pattern.
type Regex struct {
	Field   string
	Pattern string
}

// Exists matches when the field is present and non-null.
type Exists struct{ Field string }

// DayRange matches when the normalized day of the first present field among
// Fields falls within [From, To], both inclusive.
type DayRange struct {
	Fields   []string
	From, To time.Time
}

// And matches when every filter matches.
type And []Filter

// Or matches when any filter matches.
type Or []Filter

func (Regex) isFilter()    {}
func (Exists) isFilter()   {}
func (DayRange) isFilter() {}
func (And) isFilter()      {}
func (Or) isFilter()       {}

// Stage is one step of an aggregation pipeline.
type Stage interface{ isStage() }

// Match keeps documents matching Filter.
type Match struct{ Filter Filter }

// Group buckets documents by Key and emits {_id: key, count: n} per bucket,
// in first-seen order.
type Group struct{ Key Expr }

// SortKey orders by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort orders documents by Keys, earlier keys first.
type Sort struct{ Keys []SortKey }

// Limit keeps the first N documents.
type Limit struct{ N int }

func (Match) isStage() {}
func (Group) isStage() {}
func (Sort) isStage()  {}
func (Limit) isStage() {}

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// Expr computes a group key from a document.
type Expr interface{ isExpr() }

// Field yields the raw value of a field (nil when absent).
type Field struct{ Name string }

// DayString yields the YYYY-MM-DD day of the first present date field, nil
// when none parses.
type DayString struct{ Fields []string }

// Rule assigns Label when the input matches Pattern case-insensitively.
type Rule struct {
	Pattern string
	Label   string
}

// Classify yields the label of the first rule matching Field, Default
// otherwise. Non-string inputs fall through to Default.
type Classify struct {
	Field   string
	Rules   []Rule
	Default string
}

func (Field) isExpr()     {}
func (DayString) isExpr() {}
func (Classify) isExpr()  {}

// FoldPattern compiles a case-insensitive pattern.
func FoldPattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + p)
}
