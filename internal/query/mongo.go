package query

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// BSONField returns the document key for f.
func BSONField(f Field) string {
	if f == FieldID {
		return "_id"
	}
	return string(f)
}

// MongoFilter compiles p into a filter document.
func MongoFilter(p Predicate) (bson.D, error) {
	switch v := p.(type) {
	case nil:
		return bson.D{}, nil
	case And:
		if len(v) == 0 {
			return bson.D{}, nil
		}
		if len(v) == 1 {
			return MongoFilter(v[0])
		}
		terms, err := mongoTerms(v)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$and", Value: terms}}, nil
	case Or:
		if len(v) == 0 {
			return bson.D{{Key: "$expr", Value: false}}, nil
		}
		terms, err := mongoTerms(v)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$or", Value: terms}}, nil
	case Contains:
		return bson.D{{Key: BSONField(v.Field), Value: foldRegex(regexp.QuoteMeta(v.Value))}}, nil
	case EqualFold:
		return bson.D{{Key: BSONField(v.Field), Value: exactFold(v.Value)}}, nil
	case InFold:
		if len(v.Values) == 0 {
			return bson.D{{Key: "$expr", Value: false}}, nil
		}
		in := make(bson.A, 0, len(v.Values))
		for _, s := range v.Values {
			in = append(in, exactFold(s))
		}
		return bson.D{{Key: BSONField(v.Field), Value: bson.D{{Key: "$in", Value: in}}}}, nil
	case Range:
		cond := bson.D{}
		if v.Min != nil {
			cond = append(cond, bson.E{Key: "$gte", Value: *v.Min})
		}
		if v.Max != nil {
			cond = append(cond, bson.E{Key: "$lte", Value: *v.Max})
		}
		if len(cond) == 0 {
			return bson.D{}, nil
		}
		return bson.D{{Key: BSONField(v.Field), Value: cond}}, nil
	case Since:
		return bson.D{{Key: BSONField(v.Field), Value: bson.D{{Key: "$gte", Value: v.Time}}}}, nil
	case Equal:
		return bson.D{{Key: BSONField(v.Field), Value: v.Value}}, nil
	case IDIn:
		ids := make(bson.A, 0, len(v))
		for _, id := range v {
			ids = append(ids, id)
		}
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}, nil
	case NotID:
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: string(v)}}}}, nil
	default:
		return nil, fmt.Errorf("query: unsupported predicate %T", p)
	}
}

func mongoTerms(ps []Predicate) (bson.A, error) {
	out := make(bson.A, 0, len(ps))
	for _, p := range ps {
		d, err := MongoFilter(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func foldRegex(pattern string) primitive.Regex {
	return primitive.Regex{Pattern: pattern, Options: "i"}
}

func exactFold(s string) primitive.Regex {
	return foldRegex("^" + regexp.QuoteMeta(s) + "$")
}

// MongoSort compiles sort keys into a sort document.
func MongoSort(keys []SortKey) bson.D {
	out := make(bson.D, 0, len(keys))
	for _, k := range keys {
		out = append(out, bson.E{Key: BSONField(k.Field), Value: int(k.Dir)})
	}
	return out
}

// MongoPipeline compiles a plan into an aggregation pipeline to run on
// the plan's source collection.
func MongoPipeline(p *Plan) (mongo.Pipeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var pipe mongo.Pipeline
	for _, s := range p.Stages {
		switch st := s.(type) {
		case Filter:
			f, err := MongoFilter(st.Predicate)
			if err != nil {
				return nil, err
			}
			pipe = append(pipe, bson.D{{Key: "$match", Value: f}})
		case GroupCount:
			pipe = append(pipe, bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$" + BSONField(st.By)},
				{Key: BSONField(FieldCount), Value: bson.D{{Key: "$sum", Value: 1}}},
			}}})
		case Sort:
			pipe = append(pipe, bson.D{{Key: "$sort", Value: MongoSort(st)}})
		case Limit:
			pipe = append(pipe, bson.D{{Key: "$limit", Value: int64(st)}})
		case Join:
			pipe = append(pipe,
				bson.D{{Key: "$lookup", Value: bson.D{
					{Key: "from", Value: string(st.From)},
					{Key: "localField", Value: "_id"},
					{Key: "foreignField", Value: "_id"},
					{Key: "as", Value: "joined"},
				}}},
				bson.D{{Key: "$unwind", Value: "$joined"}},
				bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: bson.D{
					{Key: "$mergeObjects", Value: bson.A{"$joined", "$$ROOT"}},
				}}}}},
				bson.D{{Key: "$project", Value: bson.D{{Key: "joined", Value: 0}}}},
			)
		default:
			return nil, fmt.Errorf("query: unsupported stage %T", s)
		}
	}
	return pipe, nil
}
