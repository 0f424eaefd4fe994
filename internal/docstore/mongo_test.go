package docstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wassilaaloui/peoplestore/internal/apperrors"
)

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "mock" {
		t.Skip("MONGO_URI not set; skipping MongoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var events []Event
	store, err := Connect(ctx, ConnectOptions{
		URI:                    uri,
		Database:               "peoplestore_test",
		ConnectTimeout:         5 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		Listeners:              []Listener{func(ev Event) { events = append(events, ev) }},
	})
	if err != nil {
		t.Skipf("Could not connect to MongoDB: %v", err)
	}

	coll := "contract_" + primitive.NewObjectID().Hex()
	defer func() {
		_, _ = store.DeleteMany(context.Background(), coll, nil)
		require.NoError(t, store.Close(context.Background()))
	}()

	require.NotEmpty(t, events)
	assert.Equal(t, EventConnected, events[0].Type)

	runStoreContract(t, store, coll)
}

func TestConnectWithEmptyURI(t *testing.T) {
	var received []Event
	store, err := Connect(context.Background(), ConnectOptions{
		Listeners: []Listener{func(ev Event) { received = append(received, ev) }},
	})

	require.Error(t, err)
	assert.Nil(t, store)
	assert.True(t, apperrors.IsStoreUnavailable(err))
	require.Len(t, received, 1)
	assert.Equal(t, EventError, received[0].Type)
	assert.Equal(t, err, received[0].Err)
}

func TestConnectUnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var received []Event
	_, err := Connect(ctx, ConnectOptions{
		URI:                    "mongodb://127.0.0.1:1/?directConnection=true",
		Database:               "test",
		ConnectTimeout:         200 * time.Millisecond,
		ServerSelectionTimeout: 300 * time.Millisecond,
		Listeners:              []Listener{func(ev Event) { received = append(received, ev) }},
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsStoreUnavailable(err))
	require.Len(t, received, 1)
	assert.Equal(t, EventError, received[0].Type)
}

func TestConnectInvalidURI(t *testing.T) {
	_, err := Connect(context.Background(), ConnectOptions{URI: "not-a-mongo-uri"})
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreUnavailable(err))
}
