package mongostore

import (
	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tweetpulse/internal/model"
	"tweetpulse/internal/store"
)

// FilterBSON translates a filter into a find/count query document.
// DayRange over several fields matches when any of them is in range; a
// date-typed field is compared as a date, date_only as a YYYY-MM-DD string.
func FilterBSON(f store.Filter) (bson.M, error) {
	switch f := f.(type) {
	case nil:
		return bson.M{}, nil
	case store.Regex:
		return bson.M{f.Field: bson.M{"$regex": f.Pattern, "$options": "i"}}, nil
	case store.Exists:
		return bson.M{f.Field: bson.M{"$exists": true, "$ne": nil}}, nil
	case store.DayRange:
		from, to := model.StartOfDay(f.From), model.EndOfDay(f.To)
		var clauses bson.A
		for _, field := range f.Fields {
			if field == model.FieldDateOnly {
				clauses = append(clauses, bson.M{field: bson.M{"$gte": from.Format(model.DayLayout), "$lte": to.Format(model.DayLayout)}})
				continue
			}
			clauses = append(clauses, bson.M{field: bson.M{"$gte": from, "$lte": to}})
		}
		if len(clauses) == 1 {
			return clauses[0].(bson.M), nil
		}
		return bson.M{"$or": clauses}, nil
	case store.And:
		return combine("$and", f)
	case store.Or:
		return combine("$or", f)
	}
	return nil, errors.Newf("mongo: unsupported filter %T", f)
}

func combine(op string, fs []store.Filter) (bson.M, error) {
	parts := make(bson.A, 0, len(fs))
	for _, sub := range fs {
		m, err := FilterBSON(sub)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	return bson.M{op: parts}, nil
}

// ExprBSON translates a group-key expression into an aggregation expression.
func ExprBSON(e store.Expr) (any, error) {
	switch e := e.(type) {
	case store.Field:
		return "$" + e.Name, nil
	case store.DayString:
		return bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": coalesceDate(e.Fields)}}, nil
	case store.Classify:
		// $regexMatch rejects non-string input, so anything else becomes ""
		input := bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{bson.M{"$type": "$" + e.Field}, "string"}},
			"$" + e.Field,
			"",
		}}
		var out any = e.Default
		for i := len(e.Rules) - 1; i >= 0; i-- {
			r := e.Rules[i]
			out = bson.M{"$cond": bson.A{
				bson.M{"$regexMatch": bson.M{"input": input, "regex": r.Pattern, "options": "i"}},
				r.Label,
				out,
			}}
		}
		return out, nil
	}
	return nil, errors.Newf("mongo: unsupported expression %T", e)
}

// coalesceDate converts each field to a date and takes the first non-null.
func coalesceDate(fields []string) any {
	var out any
	for i := len(fields) - 1; i >= 0; i-- {
		conv := bson.M{"$convert": bson.M{"input": "$" + fields[i], "to": "date", "onError": nil, "onNull": nil}}
		if out == nil {
			out = conv
			continue
		}
		out = bson.M{"$ifNull": bson.A{conv, out}}
	}
	return out
}

// PipelineBSON translates a pipeline into mongo stages.
func PipelineBSON(p store.Pipeline) (mongo.Pipeline, error) {
	out := make(mongo.Pipeline, 0, len(p))
	for _, st := range p {
		switch st := st.(type) {
		case store.Match:
			f, err := FilterBSON(st.Filter)
			if err != nil {
				return nil, err
			}
			out = append(out, bson.D{{Key: "$match", Value: f}})
		case store.Group:
			key, err := ExprBSON(st.Key)
			if err != nil {
				return nil, err
			}
			out = append(out, bson.D{{Key: "$group", Value: bson.D{
				{Key: store.GroupKeyField, Value: key},
				{Key: store.GroupCountField, Value: bson.M{"$sum": 1}},
			}}})
		case store.Sort:
			keys := bson.D{}
			for _, k := range st.Keys {
				dir := 1
				if k.Desc {
					dir = -1
				}
				keys = append(keys, bson.E{Key: k.Field, Value: dir})
			}
			out = append(out, bson.D{{Key: "$sort", Value: keys}})
		case store.Limit:
			out = append(out, bson.D{{Key: "$limit", Value: st.N}})
		default:
			return nil, errors.Newf("mongo: unsupported stage %T", st)
		}
	}
	return out, nil
}
