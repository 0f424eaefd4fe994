package models

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Projected is a Person returned by a query with an exclusion projection.
// Omitted lists the fields the store did not return, so an excluded age is
// distinguishable from one that was never set.
type Projected struct {
	Person
	Omitted []string
}

// IsOmitted reports whether field was excluded by the projection.
func (p Projected) IsOmitted(field string) bool {
	for _, f := range p.Omitted {
		if f == field {
			return true
		}
	}
	return false
}

// Document renders the projected person as a document without the omitted
// fields.
func (p Projected) Document() (bson.M, error) {
	raw, err := bson.Marshal(p.Person)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for _, f := range p.Omitted {
		delete(doc, f)
	}
	return doc, nil
}
