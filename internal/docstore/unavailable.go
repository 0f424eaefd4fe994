package docstore

import (
	"context"
	"fmt"
)

// UnavailableStore stands in for a store that failed to connect. Every
// operation fails with ErrNotConnected wrapping the original cause, so
// callers see the outage on their first call instead of at startup.
type UnavailableStore struct {
	cause error
}

// NewUnavailableStore returns a store whose operations all fail with cause.
func NewUnavailableStore(cause error) *UnavailableStore {
	return &UnavailableStore{cause: cause}
}

func (u *UnavailableStore) err() error {
	if u.cause == nil {
		return ErrNotConnected
	}
	return fmt.Errorf("%w: %v", ErrNotConnected, u.cause)
}

// Cause returns the connection error the store was created with
func (u *UnavailableStore) Cause() error { return u.cause }

func (u *UnavailableStore) InsertOne(context.Context, string, any) (any, error) {
	return nil, u.err()
}

func (u *UnavailableStore) InsertMany(context.Context, string, []any) ([]any, error) {
	return nil, u.err()
}

func (u *UnavailableStore) FindOne(context.Context, string, any, any) error { return u.err() }

func (u *UnavailableStore) Find(context.Context, string, *Query, any) error { return u.err() }

func (u *UnavailableStore) FindOneAndUpdate(context.Context, string, any, any, any) error {
	return u.err()
}

func (u *UnavailableStore) FindOneAndDelete(context.Context, string, any, any) error {
	return u.err()
}

func (u *UnavailableStore) ReplaceOne(context.Context, string, any, any) (int64, error) {
	return 0, u.err()
}

func (u *UnavailableStore) DeleteMany(context.Context, string, any) (int64, error) {
	return 0, u.err()
}

func (u *UnavailableStore) CountDocuments(context.Context, string, any) (int64, error) {
	return 0, u.err()
}

func (u *UnavailableStore) Ping(context.Context) error { return u.err() }

// Close is a no-op; there is nothing to release.
func (u *UnavailableStore) Close(context.Context) error { return nil }
