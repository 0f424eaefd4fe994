// Package docstore abstracts the document database behind the person
// repository. MongoStore talks to a MongoDB deployment; LocalStore keeps the
// same documents in memory, optionally persisted to a file.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wassilaaloui/peoplestore/internal/apperrors"
)

var (
	// ErrNoDocuments is reported by the single-document reads when nothing matches.
	ErrNoDocuments = mongo.ErrNoDocuments

	// ErrNotConnected is returned by a store that is closed or never connected.
	ErrNotConnected = fmt.Errorf("%w: not connected", apperrors.ErrStoreUnavailable)
)

// DocumentStore defines the collection operations used by the repository.
type DocumentStore interface {
	// InsertOne inserts a document and returns its _id
	InsertOne(ctx context.Context, collection string, document any) (any, error)

	// InsertMany inserts documents in order, stopping at the first failure
	InsertMany(ctx context.Context, collection string, documents []any) ([]any, error)

	// FindOne decodes the first match into result, or returns ErrNoDocuments
	FindOne(ctx context.Context, collection string, filter any, result any) error

	// Find runs the query and decodes all matches into results (pointer to slice)
	Find(ctx context.Context, collection string, query *Query, results any) error

	// FindOneAndUpdate applies update to the first match and decodes the updated document
	FindOneAndUpdate(ctx context.Context, collection string, filter, update any, result any) error

	// FindOneAndDelete removes the first match and decodes the removed document
	FindOneAndDelete(ctx context.Context, collection string, filter any, result any) error

	// ReplaceOne replaces the first match and returns the matched count
	ReplaceOne(ctx context.Context, collection string, filter any, replacement any) (int64, error)

	// DeleteMany removes every match and returns the deleted count
	DeleteMany(ctx context.Context, collection string, filter any) (int64, error)

	CountDocuments(ctx context.Context, collection string, filter any) (int64, error)

	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}
