package query

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func i64(n int64) *int64 { return &n }

func TestConj(t *testing.T) {
	one := Contains{Field: FieldColor, Value: "red"}
	assert.Equal(t, one, Conj(nil, one))
	assert.Equal(t, And{}, Conj())
	assert.Len(t, Conj(one, one).(And), 2)
}

func TestMongoFilter(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want bson.D
	}{
		{"match all", All(), bson.D{}},
		{"open range", Range{Field: FieldPrice}, bson.D{}},
		{
			"range both bounds",
			Range{Field: FieldPrice, Min: i64(100), Max: i64(200)},
			bson.D{{Key: "price", Value: bson.D{{Key: "$gte", Value: int64(100)}, {Key: "$lte", Value: int64(200)}}}},
		},
		{
			"contains escapes regex",
			Contains{Field: FieldCompany, Value: "a.b"},
			bson.D{{Key: "company", Value: primitive.Regex{Pattern: `a\.b`, Options: "i"}}},
		},
		{
			"in fold",
			InFold{Field: FieldColor, Values: []string{"Red"}},
			bson.D{{Key: "color", Value: bson.D{{Key: "$in", Value: bson.A{primitive.Regex{Pattern: "^Red$", Options: "i"}}}}}},
		},
		{
			"not id",
			NotID("abc"),
			bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: "abc"}}}},
		},
		{"empty or", Or{}, bson.D{{Key: "$expr", Value: false}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MongoFilter(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMongoFilter_Nested(t *testing.T) {
	p := And{
		Or{Contains{Field: FieldCompany, Value: "bmw"}, Contains{Field: FieldColor, Value: "bmw"}},
		Range{Field: FieldMileage, Max: i64(50)},
	}
	got, err := MongoFilter(p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "$and", got[0].Key)
	terms := got[0].Value.(bson.A)
	require.Len(t, terms, 2)
	assert.Equal(t, "$or", terms[0].(bson.D)[0].Key)
}

func TestMongoPipeline_Trending(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := NewPlan(Views).
		Filter(Since{Field: FieldCreatedAt, Time: since}).
		GroupCount(FieldCar).
		Sort(SortKey{FieldCount, Desc}, SortKey{FieldID, Asc}).
		Limit(6).
		Join(Cars)

	pipe, err := MongoPipeline(plan)
	require.NoError(t, err)
	var ops []string
	for _, st := range pipe {
		ops = append(ops, st[0].Key)
	}
	assert.Equal(t, []string{"$match", "$group", "$sort", "$limit", "$lookup", "$unwind", "$replaceRoot", "$project"}, ops)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}, pipe[2][0].Value)
	assert.Equal(t, int64(6), pipe[3][0].Value)
}

func TestPlanValidate(t *testing.T) {
	assert.Error(t, (&Plan{}).Validate())
	assert.Error(t, NewPlan(Views).Join(Cars).Validate())
	assert.Error(t, NewPlan(Views).Limit(-1).Validate())
	assert.Error(t, NewPlan(Views).Filter(nil).Validate())
	assert.NoError(t, NewPlan(Views).GroupCount(FieldCar).Join(Cars).Validate())
}

func TestSQLWhere(t *testing.T) {
	b := &SQLBuilder{}
	where, err := b.Where(And{
		Or{Contains{Field: FieldCompany, Value: "50%_off"}, Contains{Field: FieldEngine, Value: "v8"}},
		Range{Field: FieldPrice, Min: i64(10)},
		InFold{Field: FieldColor, Values: []string{"Red", "BLUE"}},
		NotID("x1"),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`(("company" ILIKE $1 ESCAPE '\' OR "engine" ILIKE $2 ESCAPE '\') AND ("price" >= $3) AND LOWER("color") = ANY($4) AND "id" <> $5)`,
		where)
	require.Len(t, b.Args, 5)
	assert.Equal(t, `%50\%\_off%`, b.Args[0])
	assert.Equal(t, int64(10), b.Args[2])
	assert.Equal(t, pq.Array([]string{"red", "blue"}), b.Args[3])
}

func TestSQLWhere_Empty(t *testing.T) {
	b := &SQLBuilder{}
	w, err := b.Where(All())
	require.NoError(t, err)
	assert.Equal(t, "TRUE", w)

	w, err = b.Where(Or{})
	require.NoError(t, err)
	assert.Equal(t, "FALSE", w)
	assert.Empty(t, b.Args)
}

func TestSQLWhere_UnknownField(t *testing.T) {
	_, err := (&SQLBuilder{}).Where(Contains{Field: "nope", Value: "x"})
	assert.Error(t, err)
}

func TestSQLPlan_Trending(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := NewPlan(Views).
		Filter(Since{Field: FieldCreatedAt, Time: since}).
		GroupCount(FieldCar).
		Sort(SortKey{FieldCount, Desc}, SortKey{FieldID, Asc}).
		Limit(3).
		Join(Cars)

	q, args, err := SQLPlan(plan)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM (SELECT j.*, s5."count" FROM (SELECT * FROM (SELECT * FROM (SELECT "car_id" AS "id", COUNT(*) AS "count" FROM (SELECT * FROM (SELECT * FROM "views") AS s1 WHERE "created_at" >= $1) AS s2 GROUP BY "car_id") AS s3 ORDER BY "count" DESC, "id" ASC) AS s4 ORDER BY "count" DESC, "id" ASC LIMIT $2) AS s5 JOIN "cars" AS j ON j."id" = s5."id") AS s6 ORDER BY "count" DESC, "id" ASC`,
		q)
	assert.Equal(t, []any{since, int64(3)}, args)
}

func TestMatch(t *testing.T) {
	row := Row{
		FieldID:      "c1",
		FieldCompany: "Toyota",
		FieldColor:   "Red",
		FieldPrice:   int64(500000),
		FieldMileage: int64(20),
	}
	assert.True(t, Match(All(), row))
	assert.False(t, Match(Or{}, row))
	assert.True(t, Match(Contains{Field: FieldCompany, Value: "yot"}, row))
	assert.True(t, Match(InFold{Field: FieldColor, Values: []string{"blue", "RED"}}, row))
	assert.False(t, Match(InFold{Field: FieldColor, Values: []string{"blue"}}, row))
	assert.True(t, Match(Range{Field: FieldPrice, Min: i64(500000), Max: i64(500000)}, row))
	assert.False(t, Match(Range{Field: FieldPrice, Max: i64(499999)}, row))
	assert.True(t, Match(Range{Field: FieldMileage}, row))
	assert.False(t, Match(NotID("c1"), row))
	assert.True(t, Match(IDIn{"c0", "c1"}, row))
	assert.True(t, Match(Equal{Field: FieldPrice, Value: 500000}, row))
}

func TestRun_GroupSortLimitJoin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	views := []Row{
		{FieldCar: "b", FieldCreatedAt: now},
		{FieldCar: "a", FieldCreatedAt: now},
		{FieldCar: "c", FieldCreatedAt: now},
		{FieldCar: "a", FieldCreatedAt: now},
		{FieldCar: "c", FieldCreatedAt: now.Add(-8 * 24 * time.Hour)},
		{FieldCar: "ghost", FieldCreatedAt: now},
		{FieldCar: "ghost", FieldCreatedAt: now},
		{FieldCar: "ghost", FieldCreatedAt: now},
	}
	cars := map[string]Row{
		"a": {FieldID: "a", FieldCompany: "Audi"},
		"b": {FieldID: "b", FieldCompany: "BMW"},
		"c": {FieldID: "c", FieldCompany: "Citroen"},
	}
	plan := NewPlan(Views).
		Filter(Since{Field: FieldCreatedAt, Time: now.Add(-7 * 24 * time.Hour)}).
		GroupCount(FieldCar).
		Sort(SortKey{FieldCount, Desc}, SortKey{FieldID, Asc}).
		Limit(3).
		Join(Cars)

	out, err := Run(plan, views, func(from Collection, id string) (Row, bool) {
		assert.Equal(t, Cars, from)
		r, ok := cars[id]
		return r, ok
	})
	require.NoError(t, err)
	// ghost has no car document and is dropped by the join after the limit.
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0][FieldID])
	assert.Equal(t, int64(2), out[0][FieldCount])
	assert.Equal(t, "Audi", out[0][FieldCompany])
	assert.Equal(t, "b", out[1][FieldID])
}

func TestSortRows_Stable(t *testing.T) {
	rows := []Row{
		{FieldID: "1", FieldPrice: int64(5)},
		{FieldID: "2", FieldPrice: int64(3)},
		{FieldID: "3", FieldPrice: int64(5)},
	}
	SortRows(rows, []SortKey{{FieldPrice, Desc}})
	assert.Equal(t, "1", rows[0][FieldID])
	assert.Equal(t, "3", rows[1][FieldID])
	assert.Equal(t, "2", rows[2][FieldID])
}
