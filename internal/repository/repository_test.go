package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"car-listing-service/internal/model"
)

func TestCarDocumentLayout(t *testing.T) {
	car := model.Car{
		ID:        "c1",
		OwnerID:   "u1",
		Company:   "BMW",
		Price:     100,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Owner:     &model.User{ID: "u1", Name: "Dana"},
	}
	raw, err := bson.Marshal(car)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "c1", doc["_id"])
	assert.Equal(t, "u1", doc["owner"])
	assert.Equal(t, int64(100), doc["price"])
	assert.NotContains(t, doc, "photoFileId")
	assert.NotContains(t, doc, "Owner")
	assert.NotContains(t, doc, "owners")
}

func TestCarWithOwner(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: "c1"},
		{Key: "owner", Value: "u1"},
		{Key: "company", Value: "Kia"},
		{Key: "owners", Value: bson.A{bson.D{{Key: "_id", Value: "u1"}, {Key: "name", Value: "Dana"}}}},
	})
	require.NoError(t, err)

	var doc carWithOwner
	require.NoError(t, bson.Unmarshal(raw, &doc))
	car := doc.car()
	assert.Equal(t, "Kia", car.Company)
	require.NotNil(t, car.Owner)
	assert.Equal(t, "Dana", car.Owner.Name)

	assert.Nil(t, carWithOwner{Car: model.Car{ID: "x"}}.car().Owner)
}

func TestOwnerLookup(t *testing.T) {
	stage := ownerLookup()
	require.Len(t, stage, 1)
	assert.Equal(t, "$lookup", stage[0].Key)
	spec := stage[0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "localField", Value: "owner"}, spec[1])
}
