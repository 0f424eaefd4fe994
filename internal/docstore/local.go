package docstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const duplicateKeyCode = 11000

// LocalStore implements DocumentStore in memory. Documents keep insertion
// order within a collection. When filePath is set every write is flushed to
// the file as canonical extended JSON and the file is loaded on start.
type LocalStore struct {
	filePath string
	mu       sync.RWMutex
	data     map[string][]bson.M // collection -> documents
	closed   bool
}

// NewLocalStore creates a store, loading filePath when it exists. An empty
// filePath keeps everything in memory.
func NewLocalStore(filePath string) (*LocalStore, error) {
	store := &LocalStore{
		filePath: filePath,
		data:     make(map[string][]bson.M),
	}
	if err := store.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return store, nil
}

func (l *LocalStore) check(ctx context.Context) error {
	if l.closed {
		return ErrNotConnected
	}
	return ctx.Err()
}

func (l *LocalStore) indexOf(collection string, filter bson.M) (int, error) {
	for i, doc := range l.data[collection] {
		ok, err := matches(doc, filter)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, nil
}

func (l *LocalStore) hasID(collection string, id any) bool {
	for _, doc := range l.data[collection] {
		if valuesEqual(doc["_id"], id) {
			return true
		}
	}
	return false
}

func duplicateKeyMessage(collection string, id any) string {
	return fmt.Sprintf("E11000 duplicate key error collection: %s index: _id_ dup key: { _id: %v }", collection, id)
}

func prepareInsert(document any) (bson.M, error) {
	doc, err := toDocument(document)
	if err != nil {
		return nil, err
	}
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
	return doc, nil
}

// InsertOne stores a copy of document, assigning an _id when it has none
func (l *LocalStore) InsertOne(ctx context.Context, collection string, document any) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx); err != nil {
		return nil, err
	}

	doc, err := prepareInsert(document)
	if err != nil {
		return nil, err
	}
	id := doc["_id"]
	if l.hasID(collection, id) {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Index:   0,
			Code:    duplicateKeyCode,
			Message: duplicateKeyMessage(collection, id),
		}}}
	}

	if err := l.commit(collection, appendDocs(l.data[collection], doc)); err != nil {
		return nil, err
	}
	return id, nil
}

// InsertMany inserts in order and stops at the first duplicate, leaving the
// preceding documents in place.
func (l *LocalStore) InsertMany(ctx context.Context, collection string, documents []any) ([]any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx); err != nil {
		return nil, err
	}

	docs := make([]bson.M, 0, len(documents))
	for _, d := range documents {
		doc, err := prepareInsert(d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	ids := make([]any, 0, len(docs))
	next := appendDocs(l.data[collection])
	var writeErr error
	for i, doc := range docs {
		id := doc["_id"]
		if l.hasID(collection, id) {
			writeErr = mongo.BulkWriteException{WriteErrors: []mongo.BulkWriteError{{
				WriteError: mongo.WriteError{
					Index:   i,
					Code:    duplicateKeyCode,
					Message: duplicateKeyMessage(collection, id),
				},
			}}}
			break
		}
		next = append(next, doc)
		ids = append(ids, id)
	}

	if err := l.commit(collection, next); err != nil {
		return nil, err
	}
	return ids, writeErr
}

// FindOne decodes the first match in insertion order into result
func (l *LocalStore) FindOne(ctx context.Context, collection string, filter any, result any) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.check(ctx); err != nil {
		return err
	}

	f, err := toFilter(filter)
	if err != nil {
		return err
	}
	idx, err := l.indexOf(collection, f)
	if err != nil {
		return err
	}
	if idx < 0 {
		return ErrNoDocuments
	}
	return decode(l.data[collection][idx], result)
}

// Find applies the query's filter, sort, limit and projection in that order.
func (l *LocalStore) Find(ctx context.Context, collection string, query *Query, results any) error {
	if query == nil {
		query = NewQuery(nil)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.check(ctx); err != nil {
		return err
	}

	f, err := toFilter(query.Filter())
	if err != nil {
		return err
	}

	var matched []bson.M
	for _, doc := range l.data[collection] {
		ok, err := matches(doc, f)
		if err != nil {
			return err
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if keys := query.SortKeys(); len(keys) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessBy(keys, matched[i], matched[j])
		})
	}

	if limit := query.LimitValue(); limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}

	projected := make([]bson.M, 0, len(matched))
	for _, doc := range matched {
		projected = append(projected, project(doc, query.Excluded()))
	}
	return decodeAll(projected, results)
}

// FindOneAndUpdate applies $set and $push to the first match and decodes the result
func (l *LocalStore) FindOneAndUpdate(ctx context.Context, collection string, filter, update any, result any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx); err != nil {
		return err
	}

	f, err := toFilter(filter)
	if err != nil {
		return err
	}
	u, err := toDocument(update)
	if err != nil {
		return fmt.Errorf("invalid update: %w", err)
	}
	idx, err := l.indexOf(collection, f)
	if err != nil {
		return err
	}
	if idx < 0 {
		return ErrNoDocuments
	}

	updated, err := toDocument(l.data[collection][idx])
	if err != nil {
		return err
	}
	if err := applyUpdate(updated, u); err != nil {
		return err
	}
	if err := l.commit(collection, replaceAt(l.data[collection], idx, updated)); err != nil {
		return err
	}
	return decode(updated, result)
}

// FindOneAndDelete removes the first match and decodes it into result
func (l *LocalStore) FindOneAndDelete(ctx context.Context, collection string, filter any, result any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx); err != nil {
		return err
	}

	f, err := toFilter(filter)
	if err != nil {
		return err
	}
	idx, err := l.indexOf(collection, f)
	if err != nil {
		return err
	}
	if idx < 0 {
		return ErrNoDocuments
	}

	docs := l.data[collection]
	removed := docs[idx]
	remaining := make([]bson.M, 0, len(docs)-1)
	remaining = append(remaining, docs[:idx]...)
	remaining = append(remaining, docs[idx+1:]...)
	if err := l.commit(collection, remaining); err != nil {
		return err
	}
	return decode(removed, result)
}

// ReplaceOne swaps the first match for replacement, keeping its _id.
func (l *LocalStore) ReplaceOne(ctx context.Context, collection string, filter any, replacement any) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx); err != nil {
		return 0, err
	}

	f, err := toFilter(filter)
	if err != nil {
		return 0, err
	}
	doc, err := toDocument(replacement)
	if err != nil {
		return 0, err
	}
	for k := range doc {
		if strings.HasPrefix(k, "$") {
			return 0, errors.New("replacement document cannot contain keys beginning with '$'")
		}
	}

	idx, err := l.indexOf(collection, f)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, nil
	}

	existingID := l.data[collection][idx]["_id"]
	if newID, ok := doc["_id"]; ok && !valuesEqual(newID, existingID) {
		return 0, mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Code:    66,
			Message: "After applying the update, the (immutable) field '_id' was found to have been altered",
		}}}
	}
	doc["_id"] = existingID
	if err := l.commit(collection, replaceAt(l.data[collection], idx, doc)); err != nil {
		return 0, err
	}
	return 1, nil
}

// DeleteMany removes every match and returns the deleted count
func (l *LocalStore) DeleteMany(ctx context.Context, collection string, filter any) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(ctx); err != nil {
		return 0, err
	}

	f, err := toFilter(filter)
	if err != nil {
		return 0, err
	}

	docs := l.data[collection]
	remaining := make([]bson.M, 0, len(docs))
	var deleted int64
	for _, doc := range docs {
		ok, err := matches(doc, f)
		if err != nil {
			return 0, err
		}
		if ok {
			deleted++
			continue
		}
		remaining = append(remaining, doc)
	}
	if deleted == 0 {
		return 0, nil
	}
	if err := l.commit(collection, remaining); err != nil {
		return 0, err
	}
	return deleted, nil
}

// CountDocuments counts the documents matching filter
func (l *LocalStore) CountDocuments(ctx context.Context, collection string, filter any) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if err := l.check(ctx); err != nil {
		return 0, err
	}

	f, err := toFilter(filter)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, doc := range l.data[collection] {
		ok, err := matches(doc, f)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// Ping reports whether the store is still open
func (l *LocalStore) Ping(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.check(ctx)
}

// Close marks the store closed. Later calls fail with ErrNotConnected.
func (l *LocalStore) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// commit installs docs as the collection's contents and persists the store.
// If persisting fails the previous contents are restored, so a failed write
// is never visible to later reads. Callers must hold the write lock and pass
// a slice that does not share its backing array with the current one.
func (l *LocalStore) commit(collection string, docs []bson.M) error {
	prev, had := l.data[collection]
	l.data[collection] = docs
	if err := l.save(); err != nil {
		if had {
			l.data[collection] = prev
		} else {
			delete(l.data, collection)
		}
		return err
	}
	return nil
}

// appendDocs returns a fresh slice holding docs followed by more.
func appendDocs(docs []bson.M, more ...bson.M) []bson.M {
	out := make([]bson.M, 0, len(docs)+len(more))
	out = append(out, docs...)
	return append(out, more...)
}

// replaceAt returns a copy of docs with docs[idx] swapped for doc.
func replaceAt(docs []bson.M, idx int, doc bson.M) []bson.M {
	out := appendDocs(docs)
	out[idx] = doc
	return out
}

func (l *LocalStore) save() error {
	if l.filePath == "" {
		return nil
	}
	out, err := bson.MarshalExtJSON(l.data, true, false)
	if err != nil {
		return errors.Wrapf(err, "encode %s", l.filePath)
	}
	return errors.Wrapf(os.WriteFile(l.filePath, out, 0644), "write %s", l.filePath)
}

func (l *LocalStore) load() error {
	if l.filePath == "" {
		return nil
	}
	raw, err := os.ReadFile(l.filePath)
	if err != nil {
		return errors.Wrapf(err, "read %s", l.filePath)
	}
	if len(raw) == 0 {
		return nil
	}
	data := make(map[string][]bson.M)
	if err := bson.UnmarshalExtJSON(raw, true, &data); err != nil {
		return errors.Wrapf(err, "decode %s", l.filePath)
	}
	l.data = data
	return nil
}
