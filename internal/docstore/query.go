package docstore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Query describes a filtered read. Regardless of the order the builder
// methods are called in, the store applies filter, then sort, then limit,
// then projection.
type Query struct {
	filter  any
	sort    bson.D
	limit   int64
	exclude []string
}

// NewQuery starts a query over the documents matching filter. A nil filter
// matches everything.
func NewQuery(filter any) *Query {
	if filter == nil {
		filter = bson.D{}
	}
	return &Query{filter: filter}
}

// Sort appends a sort key. Earlier keys take precedence.
func (q *Query) Sort(field string, descending bool) *Query {
	dir := 1
	if descending {
		dir = -1
	}
	q.sort = append(q.sort, bson.E{Key: field, Value: dir})
	return q
}

// Limit caps the number of results. Zero means no limit.
func (q *Query) Limit(n int64) *Query {
	q.limit = n
	return q
}

// Exclude removes fields from the returned documents.
func (q *Query) Exclude(fields ...string) *Query {
	for _, f := range fields {
		if f != "" {
			q.exclude = append(q.exclude, f)
		}
	}
	return q
}

func (q *Query) Filter() any {
	return q.filter
}

func (q *Query) SortKeys() bson.D {
	return q.sort
}

func (q *Query) LimitValue() int64 {
	return q.limit
}

func (q *Query) Excluded() []string {
	return q.exclude
}

// FindOptions translates the query into driver options.
func (q *Query) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}
	if len(q.exclude) > 0 {
		projection := bson.D{}
		for _, f := range q.exclude {
			projection = append(projection, bson.E{Key: f, Value: 0})
		}
		opts.SetProjection(projection)
	}
	return opts
}
