package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wassilaaloui/peoplestore/internal/apperrors"
)

// ConnectOptions configures a MongoStore.
type ConnectOptions struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	// Monitor receives driver command events, e.g. for tracing
	Monitor   *event.CommandMonitor
	Listeners []Listener
}

// MongoStore implements DocumentStore on a single shared mongo.Client.
type MongoStore struct {
	client    *mongo.Client
	dbName    string
	listeners []Listener
}

// Connect creates the client and verifies the deployment is reachable with
// a ping against the primary. Listeners are told the outcome and the error,
// if any, is also returned.
func Connect(ctx context.Context, opts ConnectOptions) (*MongoStore, error) {
	if opts.URI == "" {
		err := &apperrors.StoreUnavailableError{Op: "connect", Err: errors.New("mongo uri is empty")}
		notify(opts.Listeners, EventError, err)
		return nil, err
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}
	if opts.Monitor != nil {
		clientOpts.SetMonitor(opts.Monitor)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		wrapped := &apperrors.StoreUnavailableError{Op: "connect", Err: err}
		notify(opts.Listeners, EventError, wrapped)
		return nil, wrapped
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		wrapped := &apperrors.StoreUnavailableError{Op: "ping", Err: err}
		notify(opts.Listeners, EventError, wrapped)
		return nil, wrapped
	}

	notify(opts.Listeners, EventConnected, nil)
	return &MongoStore{client: client, dbName: opts.Database, listeners: opts.Listeners}, nil
}

func (m *MongoStore) collection(name string) *mongo.Collection {
	return m.client.Database(m.dbName).Collection(name)
}

// InsertOne inserts a document and returns the _id the server recorded
func (m *MongoStore) InsertOne(ctx context.Context, collection string, document any) (any, error) {
	res, err := m.collection(collection).InsertOne(ctx, document)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

// InsertMany performs an ordered insert and returns the inserted ids
func (m *MongoStore) InsertMany(ctx context.Context, collection string, documents []any) ([]any, error) {
	res, err := m.collection(collection).InsertMany(ctx, documents, options.InsertMany().SetOrdered(true))
	if err != nil {
		if res != nil {
			return res.InsertedIDs, err
		}
		return nil, err
	}
	return res.InsertedIDs, nil
}

// FindOne decodes the first match into result
func (m *MongoStore) FindOne(ctx context.Context, collection string, filter any, result any) error {
	return m.collection(collection).FindOne(ctx, orEmpty(filter)).Decode(result)
}

// Find runs the query and decodes every match into results
func (m *MongoStore) Find(ctx context.Context, collection string, query *Query, results any) error {
	if query == nil {
		query = NewQuery(nil)
	}
	cursor, err := m.collection(collection).Find(ctx, query.Filter(), query.FindOptions())
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, results)
}

// FindOneAndUpdate applies update to the first match and decodes the updated document
func (m *MongoStore) FindOneAndUpdate(ctx context.Context, collection string, filter, update any, result any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(false)
	return m.collection(collection).FindOneAndUpdate(ctx, orEmpty(filter), update, opts).Decode(result)
}

// FindOneAndDelete removes the first match and decodes it into result
func (m *MongoStore) FindOneAndDelete(ctx context.Context, collection string, filter any, result any) error {
	return m.collection(collection).FindOneAndDelete(ctx, orEmpty(filter)).Decode(result)
}

// ReplaceOne replaces the first match and returns the matched count
func (m *MongoStore) ReplaceOne(ctx context.Context, collection string, filter any, replacement any) (int64, error) {
	res, err := m.collection(collection).ReplaceOne(ctx, orEmpty(filter), replacement)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// DeleteMany removes every match and returns the deleted count
func (m *MongoStore) DeleteMany(ctx context.Context, collection string, filter any) (int64, error) {
	res, err := m.collection(collection).DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountDocuments counts the documents matching filter
func (m *MongoStore) CountDocuments(ctx context.Context, collection string, filter any) (int64, error) {
	return m.collection(collection).CountDocuments(ctx, orEmpty(filter))
}

// Ping checks the primary is reachable
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client and notifies listeners.
func (m *MongoStore) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		if errors.Is(err, mongo.ErrClientDisconnected) {
			return nil
		}
		return fmt.Errorf("disconnect: %w", err)
	}
	notify(m.listeners, EventDisconnected, nil)
	return nil
}

func orEmpty(filter any) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
