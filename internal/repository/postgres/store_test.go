package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"users", "cars", "reviews", "views", "favorites"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, schema, "PRIMARY KEY (user_id, car_id)")
}
