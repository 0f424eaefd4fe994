// Package person implements the Person repository over a DocumentStore.
package person

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wassilaaloui/peoplestore/internal/apperrors"
	"github.com/wassilaaloui/peoplestore/internal/docstore"
	"github.com/wassilaaloui/peoplestore/internal/logging"
	"github.com/wassilaaloui/peoplestore/internal/metrics"
	"github.com/wassilaaloui/peoplestore/internal/models"
)

// DefaultCollection is the collection people are stored in.
const DefaultCollection = "people"

const entity = "person"

// operation names used for metrics labels, span names and log fields
const (
	opInsertOne         = "insert_one"
	opInsertMany        = "insert_many"
	opFindByName        = "find_by_name"
	opFindByFood        = "find_one_by_favorite_food"
	opFindByID          = "find_by_id"
	opAppendAndSave     = "append_favorite_food_and_save"
	opAppendAtomic      = "append_favorite_food_atomic"
	opUpdateAgeByName   = "update_age_by_name"
	opRemoveByID        = "remove_by_id"
	opRemoveAllByName   = "remove_all_by_name"
	opQueryFavoriteFood = "query_favorite_food"
	opCount             = "count"
)

// Repository exposes the Person operations. It is safe for concurrent use;
// see AppendFavoriteFoodAndSave for the one operation that is not atomic.
type Repository struct {
	store      docstore.DocumentStore
	logger     logging.Logger
	metrics    *metrics.Collector
	tracer     trace.Tracer
	collection string
}

// Option configures a Repository
type Option func(*Repository)

// WithMetrics records every operation on c
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Repository) { r.metrics = c }
}

// WithCollection overrides DefaultCollection
func WithCollection(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.collection = name
		}
	}
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(r *Repository) {
		if t != nil {
			r.tracer = t
		}
	}
}

// New creates a Repository over store
func New(store docstore.DocumentStore, logger logging.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:      store,
		logger:     logger.WithField("component", "person-repository"),
		tracer:     otel.Tracer("github.com/wassilaaloui/peoplestore/internal/person"),
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collection returns the collection name in use
func (r *Repository) Collection() string {
	return r.collection
}

func (r *Repository) begin(ctx context.Context, op string) (context.Context, trace.Span, time.Time) {
	ctx, span := r.tracer.Start(ctx, "person."+op,
		trace.WithAttributes(attribute.String("db.collection", r.collection)))
	return ctx, span, time.Now()
}

// finish classifies err, records it and closes the span. The returned error
// is what the caller sees.
func (r *Repository) finish(span trace.Span, op string, start time.Time, err error) error {
	defer span.End()
	classified := apperrors.Classify(op, err)
	r.metrics.Observe(op, r.collection, start, classified)
	if classified != nil {
		span.RecordError(classified)
		span.SetStatus(codes.Error, apperrors.Kind(classified))
	}
	return classified
}

func (r *Repository) fail(op, msg string, err error, keysAndValues ...interface{}) error {
	fields := append([]interface{}{"operation", op, "error", err}, keysAndValues...)
	if apperrors.IsDuplicateKey(err) {
		fields = append(fields, "duplicate_key", true)
	}
	r.logger.Errorw(msg, fields...)
	return err
}

// parseID returns false for anything that is not a 24-character hex ObjectID.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// InsertOne validates draft, assigns a new id and stores it.
func (r *Repository) InsertOne(ctx context.Context, draft models.Person) (*models.Person, error) {
	ctx, span, start := r.begin(ctx, opInsertOne)

	if err := draft.Validate(); err != nil {
		return nil, r.fail(opInsertOne, "Error creating person", r.finish(span, opInsertOne, start, err))
	}

	p := draft.Clone()
	p.ID = primitive.NewObjectID()
	p.Normalize()

	_, err := r.store.InsertOne(ctx, r.collection, p)
	if err = r.finish(span, opInsertOne, start, err); err != nil {
		return nil, r.fail(opInsertOne, "Error creating person", err, "name", p.Name)
	}

	r.metrics.AddDocuments(opInsertOne, r.collection, 1)
	r.logger.Infow("Created and saved person", "id", p.ID.Hex(), "person", p.String())
	return &p, nil
}

// InsertMany stores all drafts or none of them. Every draft is validated
// before anything is written; if the store fails part-way the documents of
// this batch that did land are deleted again before the error is returned.
func (r *Repository) InsertMany(ctx context.Context, drafts []models.Person) ([]models.Person, error) {
	ctx, span, start := r.begin(ctx, opInsertMany)

	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			var vErr *apperrors.ValidationError
			if errors.As(err, &vErr) {
				err = &apperrors.ValidationError{Field: vErr.Field, Index: i, Message: vErr.Message}
			}
			return nil, r.fail(opInsertMany, "Error creating people", r.finish(span, opInsertMany, start, err), "index", i)
		}
	}

	if len(drafts) == 0 {
		_ = r.finish(span, opInsertMany, start, nil)
		r.logger.Infow("Created many people", "count", 0)
		return []models.Person{}, nil
	}

	people := make([]models.Person, len(drafts))
	docs := make([]any, len(drafts))
	ids := make([]primitive.ObjectID, len(drafts))
	for i, d := range drafts {
		p := d.Clone()
		p.ID = primitive.NewObjectID()
		p.Normalize()
		people[i] = p
		docs[i] = p
		ids[i] = p.ID
	}

	if _, err := r.store.InsertMany(ctx, r.collection, docs); err != nil {
		r.compensate(ctx, ids)
		err = r.finish(span, opInsertMany, start, err)
		return nil, r.fail(opInsertMany, "Error creating people", err, "count", len(drafts))
	}
	_ = r.finish(span, opInsertMany, start, nil)

	r.metrics.AddDocuments(opInsertMany, r.collection, len(people))
	r.logger.Infow("Created many people", "count", len(people))
	return people, nil
}

// compensate removes whatever part of a failed batch was written. It uses a
// fresh context so a canceled caller still gets the cleanup attempt.
func (r *Repository) compensate(ctx context.Context, ids []primitive.ObjectID) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	removed, err := r.store.DeleteMany(cleanupCtx, r.collection, bson.M{models.FieldID: bson.M{"$in": ids}})
	if err != nil {
		r.logger.Errorw("Failed to roll back partial batch insert", "error", err, "count", len(ids))
		return
	}
	if removed > 0 {
		r.logger.Warnw("Rolled back partial batch insert", "removed", removed)
	}
}

// FindByName returns every person with exactly this name, in no particular order.
func (r *Repository) FindByName(ctx context.Context, name string) ([]models.Person, error) {
	ctx, span, start := r.begin(ctx, opFindByName)

	var people []models.Person
	err := r.store.Find(ctx, r.collection, docstore.NewQuery(bson.M{models.FieldName: name}), &people)
	if err = r.finish(span, opFindByName, start, err); err != nil {
		return nil, r.fail(opFindByName, "Error finding people", err, "name", name)
	}
	if people == nil {
		people = []models.Person{}
	}

	r.metrics.AddDocuments(opFindByName, r.collection, len(people))
	r.logger.Infof("Found %d people named %s", len(people), name)
	return people, nil
}

// FindOneByFavoriteFood returns some person whose favorites contain food,
// or nil when nobody does.
func (r *Repository) FindOneByFavoriteFood(ctx context.Context, food string) (*models.Person, error) {
	ctx, span, start := r.begin(ctx, opFindByFood)

	var p models.Person
	err := r.store.FindOne(ctx, r.collection, bson.M{models.FieldFavoriteFoods: food}, &p)
	if errors.Is(err, docstore.ErrNoDocuments) {
		_ = r.finish(span, opFindByFood, start, nil)
		r.logger.Infow("No person found who likes food", "food", food)
		return nil, nil
	}
	if err = r.finish(span, opFindByFood, start, err); err != nil {
		return nil, r.fail(opFindByFood, "Error finding person by food", err, "food", food)
	}

	r.metrics.AddDocuments(opFindByFood, r.collection, 1)
	r.logger.Infow("Found person who likes food", "food", food, "person", p.String())
	return &p, nil
}

// FindByID returns the person with this id, or nil if there is none or the
// id is not a valid ObjectID.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	ctx, span, start := r.begin(ctx, opFindByID)

	oid, ok := parseID(id)
	if !ok {
		_ = r.finish(span, opFindByID, start, nil)
		r.logger.Warnw("Malformed person id", "operation", opFindByID, "id", id)
		return nil, nil
	}

	var p models.Person
	err := r.store.FindOne(ctx, r.collection, bson.M{models.FieldID: oid}, &p)
	if errors.Is(err, docstore.ErrNoDocuments) {
		_ = r.finish(span, opFindByID, start, nil)
		r.logger.Infow("No person found by ID", "id", id)
		return nil, nil
	}
	if err = r.finish(span, opFindByID, start, err); err != nil {
		return nil, r.fail(opFindByID, "Error finding person by ID", err, "id", id)
	}

	r.metrics.AddDocuments(opFindByID, r.collection, 1)
	r.logger.Infow("Found person by ID", "id", id, "person", p.String())
	return &p, nil
}

// AppendFavoriteFoodAndSave loads the person, appends food in memory and
// writes the whole document back. Two concurrent calls on the same id can
// both read the old list, so one append may be lost; use
// AppendFavoriteFoodAtomic when that matters.
func (r *Repository) AppendFavoriteFoodAndSave(ctx context.Context, id, food string) (*models.Person, error) {
	ctx, span, start := r.begin(ctx, opAppendAndSave)

	oid, ok := parseID(id)
	if !ok {
		err := r.finish(span, opAppendAndSave, start, apperrors.NewNotFoundError(entity, id))
		return nil, r.fail(opAppendAndSave, "Error finding person to edit", err, "id", id)
	}

	var p models.Person
	err := r.store.FindOne(ctx, r.collection, bson.M{models.FieldID: oid}, &p)
	if errors.Is(err, docstore.ErrNoDocuments) {
		err = apperrors.NewNotFoundError(entity, id)
	}
	if err != nil {
		err = r.finish(span, opAppendAndSave, start, err)
		return nil, r.fail(opAppendAndSave, "Error finding person to edit", err, "id", id)
	}

	p.FavoriteFoods = append(p.FavoriteFoods, food)
	if err := p.Validate(); err != nil {
		err = r.finish(span, opAppendAndSave, start, err)
		return nil, r.fail(opAppendAndSave, "Error saving updated person", err, "id", id)
	}

	matched, err := r.store.ReplaceOne(ctx, r.collection, bson.M{models.FieldID: oid}, p)
	if err == nil && matched == 0 {
		// removed between the read and the write
		err = apperrors.NewNotFoundError(entity, id)
	}
	if err = r.finish(span, opAppendAndSave, start, err); err != nil {
		return nil, r.fail(opAppendAndSave, "Error saving updated person", err, "id", id)
	}

	r.metrics.AddDocuments(opAppendAndSave, r.collection, 1)
	r.logger.Infow("Added food to person's favorites", "food", food, "id", id, "favoriteFoods", p.FavoriteFoods)
	return &p, nil
}

// AppendFavoriteFoodAtomic appends food with a single server-side $push and
// returns the updated document. Concurrent calls never lose an append.
func (r *Repository) AppendFavoriteFoodAtomic(ctx context.Context, id, food string) (*models.Person, error) {
	ctx, span, start := r.begin(ctx, opAppendAtomic)

	oid, ok := parseID(id)
	if !ok {
		err := r.finish(span, opAppendAtomic, start, apperrors.NewNotFoundError(entity, id))
		return nil, r.fail(opAppendAtomic, "Error adding favorite food", err, "id", id)
	}

	var p models.Person
	err := r.store.FindOneAndUpdate(ctx, r.collection,
		bson.M{models.FieldID: oid},
		bson.M{"$push": bson.M{models.FieldFavoriteFoods: food}},
		&p)
	if errors.Is(err, docstore.ErrNoDocuments) {
		err = apperrors.NewNotFoundError(entity, id)
	}
	if err = r.finish(span, opAppendAtomic, start, err); err != nil {
		return nil, r.fail(opAppendAtomic, "Error adding favorite food", err, "id", id)
	}

	r.metrics.AddDocuments(opAppendAtomic, r.collection, 1)
	r.logger.Infow("Added food to person's favorites", "food", food, "id", id, "favoriteFoods", p.FavoriteFoods)
	return &p, nil
}

// UpdateAgeByName sets the age of one person with this name and returns the
// updated document, or nil if nobody has the name. It never inserts.
func (r *Repository) UpdateAgeByName(ctx context.Context, name string, newAge int) (*models.Person, error) {
	ctx, span, start := r.begin(ctx, opUpdateAgeByName)

	var p models.Person
	err := r.store.FindOneAndUpdate(ctx, r.collection,
		bson.M{models.FieldName: name},
		bson.M{"$set": bson.M{models.FieldAge: newAge}},
		&p)
	if errors.Is(err, docstore.ErrNoDocuments) {
		_ = r.finish(span, opUpdateAgeByName, start, nil)
		r.logger.Infow("No person found to update", "name", name)
		return nil, nil
	}
	if err = r.finish(span, opUpdateAgeByName, start, err); err != nil {
		return nil, r.fail(opUpdateAgeByName, "Error updating person", err, "name", name)
	}

	r.metrics.AddDocuments(opUpdateAgeByName, r.collection, 1)
	age, _ := p.AgeValue()
	r.logger.Infof("Updated %s's age to %d", name, age)
	return &p, nil
}

// RemoveByID deletes the person with this id and returns it, or nil if
// there is none or the id is malformed.
func (r *Repository) RemoveByID(ctx context.Context, id string) (*models.Person, error) {
	ctx, span, start := r.begin(ctx, opRemoveByID)

	oid, ok := parseID(id)
	if !ok {
		_ = r.finish(span, opRemoveByID, start, nil)
		r.logger.Warnw("Malformed person id", "operation", opRemoveByID, "id", id)
		return nil, nil
	}

	var p models.Person
	err := r.store.FindOneAndDelete(ctx, r.collection, bson.M{models.FieldID: oid}, &p)
	if errors.Is(err, docstore.ErrNoDocuments) {
		_ = r.finish(span, opRemoveByID, start, nil)
		r.logger.Infow("No person found to remove", "id", id)
		return nil, nil
	}
	if err = r.finish(span, opRemoveByID, start, err); err != nil {
		return nil, r.fail(opRemoveByID, "Error removing person", err, "id", id)
	}

	r.metrics.AddDocuments(opRemoveByID, r.collection, 1)
	r.logger.Infow("Removed person", "id", id, "person", p.String())
	return &p, nil
}

// RemoveAllByName deletes every person with this name and returns how many
// were removed.
func (r *Repository) RemoveAllByName(ctx context.Context, name string) (int64, error) {
	ctx, span, start := r.begin(ctx, opRemoveAllByName)

	deleted, err := r.store.DeleteMany(ctx, r.collection, bson.M{models.FieldName: name})
	if err = r.finish(span, opRemoveAllByName, start, err); err != nil {
		return 0, r.fail(opRemoveAllByName, "Error removing people", err, "name", name)
	}

	r.metrics.AddDocuments(opRemoveAllByName, r.collection, int(deleted))
	r.logger.Infow("Removed people", "name", name, "count", deleted)
	return deleted, nil
}

// QueryFavoriteFood returns people who like food, sorted by name ascending,
// at most limit of them (0 for no limit), with excludeField left out of
// each result. An empty excludeField returns whole documents.
func (r *Repository) QueryFavoriteFood(ctx context.Context, food string, limit int64, excludeField string) ([]models.Projected, error) {
	ctx, span, start := r.begin(ctx, opQueryFavoriteFood)

	if limit < 0 {
		err := r.finish(span, opQueryFavoriteFood, start,
			apperrors.NewValidationError("limit", "must not be negative"))
		return nil, r.fail(opQueryFavoriteFood, "Error in query chain", err, "limit", limit)
	}

	q := docstore.NewQuery(bson.M{models.FieldFavoriteFoods: food}).
		Sort(models.FieldName, false).
		Limit(limit).
		Exclude(excludeField)

	var people []models.Person
	err := r.store.Find(ctx, r.collection, q, &people)
	if err = r.finish(span, opQueryFavoriteFood, start, err); err != nil {
		return nil, r.fail(opQueryFavoriteFood, "Error in query chain", err, "food", food)
	}

	results := make([]models.Projected, 0, len(people))
	for _, p := range people {
		results = append(results, models.Projected{Person: p, Omitted: q.Excluded()})
	}

	r.metrics.AddDocuments(opQueryFavoriteFood, r.collection, len(results))
	r.logger.Infow("Query chain results", "food", food, "limit", limit, "exclude", excludeField, "count", len(results))
	return results, nil
}

// Count returns the number of people stored
func (r *Repository) Count(ctx context.Context) (int64, error) {
	ctx, span, start := r.begin(ctx, opCount)

	n, err := r.store.CountDocuments(ctx, r.collection, bson.M{})
	if err = r.finish(span, opCount, start, err); err != nil {
		return 0, r.fail(opCount, "Error counting people", err)
	}
	return n, nil
}
