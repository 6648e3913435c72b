package analytics

import (
	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

// Bucket is one engagement category.
type Bucket string

const (
	Likes    Bucket = "likes"
	Retweets Bucket = "retweets"
	Comments Bucket = "comments"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{Likes, Retweets, Comments}

// Outcome patterns, matched case-insensitively as substrings.
const (
	SuccessPattern = "success"
	FailurePattern = "failed"
)

// Rules classify an action label, first match wins. Anything unmatched is
// DefaultBucket.
var Rules = []store.Rule{
	{Pattern: "like", Label: string(Likes)},
	{Pattern: "repost|retweet", Label: string(Retweets)},
}

// DefaultBucket catches actions no rule matches.
const DefaultBucket = Comments

func classifier() store.Classify {
	return store.Classify{Field: model.FieldAction, Rules: Rules, Default: string(DefaultBucket)}
}

// Classify returns the bucket for an action label.
func Classify(action string) Bucket {
	v, err := store.Value(model.Document{model.FieldAction: action}, classifier())
	if err != nil {
		return DefaultBucket
	}
	return Bucket(v.(string))
}

func succeeded(field string) store.Filter {
	return store.Regex{Field: field, Pattern: SuccessPattern}
}

// successFilter counts an event once it succeeded on the first attempt or
// failed and then succeeded on rerun.
func successFilter() store.Filter {
	return store.Or{
		succeeded(model.FieldResult),
		store.And{
			store.Regex{Field: model.FieldResult, Pattern: FailurePattern},
			succeeded(model.FieldRerun),
		},
	}
}

// initialFilter selects first-attempt successes.
func initialFilter() store.Filter { return succeeded(model.FieldResult) }

// rerunFilter selects success on either attempt.
func rerunFilter() store.Filter {
	return store.Or{succeeded(model.FieldResult), succeeded(model.FieldRerun)}
}
