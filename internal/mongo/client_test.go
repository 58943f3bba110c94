package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIndexes(t *testing.T) {
	idx := Indexes()
	require.Contains(t, idx, "favorites")
	fav := idx["favorites"][0]
	assert.Equal(t, bson.D{{Key: "user", Value: 1}, {Key: "car", Value: 1}}, fav.Keys)
	require.NotNil(t, fav.Options)
	require.NotNil(t, fav.Options.Unique)
	assert.True(t, *fav.Options.Unique)

	views := idx["views"][0].Keys.(bson.D)
	assert.Equal(t, []string{"car", "ip", "createdAt"}, []string{views[0].Key, views[1].Key, views[2].Key})
}
