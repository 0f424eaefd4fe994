package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TestDoc struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
	Val  int                `bson:"val,omitempty"`
	Tags []string           `bson:"tags"`
}

// runStoreContract exercises the DocumentStore behaviour every backend must share.
func runStoreContract(t *testing.T, store DocumentStore, coll string) {
	ctx := context.Background()

	t.Run("insert and find one", func(t *testing.T) {
		id, err := store.InsertOne(ctx, coll, TestDoc{Name: "alpha", Val: 1, Tags: []string{"x"}})
		require.NoError(t, err)
		oid, ok := id.(primitive.ObjectID)
		require.True(t, ok, "expected ObjectID, got %T", id)

		var got TestDoc
		require.NoError(t, store.FindOne(ctx, coll, bson.M{"_id": oid}, &got))
		assert.Equal(t, "alpha", got.Name)
		assert.Equal(t, 1, got.Val)
		assert.Equal(t, []string{"x"}, got.Tags)
	})

	t.Run("find one without match", func(t *testing.T) {
		var got TestDoc
		err := store.FindOne(ctx, coll, bson.M{"name": "missing"}, &got)
		assert.ErrorIs(t, err, ErrNoDocuments)
	})

	t.Run("duplicate id", func(t *testing.T) {
		doc := TestDoc{ID: primitive.NewObjectID(), Name: "dup"}
		_, err := store.InsertOne(ctx, coll, doc)
		require.NoError(t, err)
		_, err = store.InsertOne(ctx, coll, doc)
		require.Error(t, err)
		assert.True(t, mongo.IsDuplicateKeyError(err))
	})

	t.Run("insert many and query pipeline", func(t *testing.T) {
		docs := []any{
			TestDoc{Name: "carol", Val: 30, Tags: []string{"burrito"}},
			TestDoc{Name: "alice", Val: 10, Tags: []string{"burrito", "tacos"}},
			TestDoc{Name: "bob", Val: 20, Tags: []string{"burrito"}},
			TestDoc{Name: "dave", Val: 40, Tags: []string{"pizza"}},
		}
		ids, err := store.InsertMany(ctx, coll, docs)
		require.NoError(t, err)
		require.Len(t, ids, 4)

		var results []bson.M
		q := NewQuery(bson.M{"tags": "burrito"}).Exclude("val").Limit(2).Sort("name", false)
		require.NoError(t, store.Find(ctx, coll, q, &results))
		require.Len(t, results, 2)
		assert.Equal(t, "alice", results[0]["name"])
		assert.Equal(t, "bob", results[1]["name"])
		for _, r := range results {
			_, hasVal := r["val"]
			assert.False(t, hasVal)
			assert.NotNil(t, r["_id"])
		}
	})

	t.Run("find one and update returns updated document", func(t *testing.T) {
		var got TestDoc
		err := store.FindOneAndUpdate(ctx, coll, bson.M{"name": "alice"}, bson.M{"$set": bson.M{"val": 11}}, &got)
		require.NoError(t, err)
		assert.Equal(t, 11, got.Val)
		assert.Equal(t, "alice", got.Name)

		err = store.FindOneAndUpdate(ctx, coll, bson.M{"name": "alice"}, bson.M{"$push": bson.M{"tags": "nachos"}}, &got)
		require.NoError(t, err)
		assert.Equal(t, []string{"burrito", "tacos", "nachos"}, got.Tags)

		err = store.FindOneAndUpdate(ctx, coll, bson.M{"name": "nobody"}, bson.M{"$set": bson.M{"val": 1}}, &got)
		assert.ErrorIs(t, err, ErrNoDocuments)
		count, err := store.CountDocuments(ctx, coll, bson.M{"name": "nobody"})
		require.NoError(t, err)
		assert.Zero(t, count, "update must never upsert")
	})

	t.Run("replace one", func(t *testing.T) {
		var bob TestDoc
		require.NoError(t, store.FindOne(ctx, coll, bson.M{"name": "bob"}, &bob))

		bob.Tags = append(bob.Tags, "hamburger")
		matched, err := store.ReplaceOne(ctx, coll, bson.M{"_id": bob.ID}, bob)
		require.NoError(t, err)
		assert.Equal(t, int64(1), matched)

		var reloaded TestDoc
		require.NoError(t, store.FindOne(ctx, coll, bson.M{"_id": bob.ID}, &reloaded))
		assert.Equal(t, []string{"burrito", "hamburger"}, reloaded.Tags)

		matched, err = store.ReplaceOne(ctx, coll, bson.M{"_id": primitive.NewObjectID()}, bob)
		require.NoError(t, err)
		assert.Zero(t, matched)
	})

	t.Run("find one and delete", func(t *testing.T) {
		var removed TestDoc
		require.NoError(t, store.FindOneAndDelete(ctx, coll, bson.M{"name": "dave"}, &removed))
		assert.Equal(t, "dave", removed.Name)

		err := store.FindOneAndDelete(ctx, coll, bson.M{"name": "dave"}, &removed)
		assert.ErrorIs(t, err, ErrNoDocuments)
	})

	t.Run("delete many with $in", func(t *testing.T) {
		var all []TestDoc
		require.NoError(t, store.Find(ctx, coll, NewQuery(bson.M{"tags": "burrito"}), &all))
		ids := make([]primitive.ObjectID, 0, len(all))
		for _, d := range all {
			ids = append(ids, d.ID)
		}

		deleted, err := store.DeleteMany(ctx, coll, bson.M{"_id": bson.M{"$in": ids}})
		require.NoError(t, err)
		assert.Equal(t, int64(len(ids)), deleted)

		deleted, err = store.DeleteMany(ctx, coll, bson.M{"name": "nobody"})
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
