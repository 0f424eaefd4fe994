package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestQueryFindOptions(t *testing.T) {
	q := NewQuery(bson.M{"favoriteFoods": "burrito"}).
		Exclude("age").
		Limit(2).
		Sort("name", false)

	opts := q.FindOptions()
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(2), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, opts.Sort)
	assert.Equal(t, bson.D{{Key: "age", Value: 0}}, opts.Projection)
	assert.Equal(t, bson.M{"favoriteFoods": "burrito"}, q.Filter())
}

func TestQueryDefaults(t *testing.T) {
	q := NewQuery(nil)

	assert.Equal(t, bson.D{}, q.Filter())
	opts := q.FindOptions()
	assert.Nil(t, opts.Limit)
	assert.Nil(t, opts.Sort)
	assert.Nil(t, opts.Projection)
}

func TestQuerySortOrderAndDirection(t *testing.T) {
	q := NewQuery(nil).Sort("name", false).Sort("age", true)

	assert.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "age", Value: -1}}, q.SortKeys())
}

func TestQueryExcludeIgnoresEmpty(t *testing.T) {
	q := NewQuery(nil).Exclude("", "age", "")
	assert.Equal(t, []string{"age"}, q.Excluded())
}

func TestQueryZeroLimitMeansUnlimited(t *testing.T) {
	q := NewQuery(nil).Limit(0)
	assert.Nil(t, q.FindOptions().Limit)
	assert.Zero(t, q.LimitValue())
}
