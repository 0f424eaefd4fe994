// Package models holds the Person entity persisted by the repository.
package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wassilaaloui/peoplestore/internal/apperrors"
)

// Document field names.
const (
	FieldID            = "_id"
	FieldName          = "name"
	FieldAge           = "age"
	FieldFavoriteFoods = "favoriteFoods"
)

// Person is a single document of the people collection.
type Person struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name" validate:"required"`
	Age           *int               `bson:"age,omitempty" json:"age,omitempty"`
	FavoriteFoods []string           `bson:"favoriteFoods" json:"favoriteFoods"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("bson"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// NewPerson builds an unsaved draft with the given age.
func NewPerson(name string, age int, foods ...string) Person {
	return Person{
		Name:          name,
		Age:           Age(age),
		FavoriteFoods: append([]string{}, foods...),
	}
}

// Age returns a pointer to v, for populating Person.Age.
func Age(v int) *int {
	return &v
}

// Persisted reports whether the person carries a store-assigned id.
func (p Person) Persisted() bool {
	return !p.ID.IsZero()
}

// Validate checks the schema rules without touching the store.
func (p Person) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}
	first := fieldErrs[0]
	return apperrors.NewValidationError(first.Field(), ruleMessage(first))
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

// Normalize replaces a nil food list with an empty one so the document
// stores an array rather than null.
func (p *Person) Normalize() {
	if p.FavoriteFoods == nil {
		p.FavoriteFoods = []string{}
	}
}

// Clone returns a deep copy.
func (p Person) Clone() Person {
	c := p
	if p.Age != nil {
		c.Age = Age(*p.Age)
	}
	if p.FavoriteFoods != nil {
		c.FavoriteFoods = append([]string{}, p.FavoriteFoods...)
	}
	return c
}

// AgeValue returns the age and whether it is set.
func (p Person) AgeValue() (int, bool) {
	if p.Age == nil {
		return 0, false
	}
	return *p.Age, true
}

// LikesFood reports whether food is among the favorites.
func (p Person) LikesFood(food string) bool {
	for _, f := range p.FavoriteFoods {
		if f == food {
			return true
		}
	}
	return false
}

// String renders the person as JSON for log lines.
func (p Person) String() string {
	out, err := sonic.MarshalString(p)
	if err != nil {
		return fmt.Sprintf("Person{id:%s name:%s}", p.ID.Hex(), p.Name)
	}
	return out
}
