package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "single document",
			err:      NewValidationError("name", "is required"),
			expected: `validation failed for field "name": is required`,
		},
		{
			name:     "batch item",
			err:      &ValidationError{Field: "name", Index: 2, Message: "is required"},
			expected: `validation failed for item 2 field "name": is required`,
		},
		{
			name:     "no field",
			err:      &ValidationError{Index: -1, Message: "limit must not be negative"},
			expected: "validation failed: limit must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.True(t, errors.Is(tt.err, ErrValidation))
			assert.True(t, IsValidation(tt.err))
			assert.False(t, IsNotFound(tt.err))
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("person", "64b7f0c2a1b2c3d4e5f60718")

	assert.Equal(t, `person with key "64b7f0c2a1b2c3d4e5f60718" not found`, err.Error())
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsStore(err))
}

func TestStoreErrorsUnwrap(t *testing.T) {
	cause := errors.New("socket closed")

	unavailable := &StoreUnavailableError{Op: "insert_one", Err: cause}
	assert.True(t, IsStoreUnavailable(unavailable))
	assert.ErrorIs(t, unavailable, cause)
	assert.Contains(t, unavailable.Error(), "insert_one")

	storeErr := &StoreError{Op: "delete_many", Err: cause}
	assert.True(t, IsStore(storeErr))
	assert.ErrorIs(t, storeErr, cause)
	assert.False(t, IsStoreUnavailable(storeErr))
}

func TestClassify(t *testing.T) {
	duplicate := mongo.WriteException{WriteErrors: []mongo.WriteError{{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}}}
	network := mongo.CommandError{Code: 6, Message: "connection reset", Labels: []string{"NetworkError"}}

	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"nil", nil, ""},
		{"validation passes through", NewValidationError("name", "is required"), "validation"},
		{"not found passes through", NewNotFoundError("person", "x"), "not_found"},
		{"deadline", context.DeadlineExceeded, "unavailable"},
		{"canceled", fmt.Errorf("find: %w", context.Canceled), "unavailable"},
		{"client disconnected", mongo.ErrClientDisconnected, "unavailable"},
		{"not connected sentinel", fmt.Errorf("%w: store closed", ErrStoreUnavailable), "unavailable"},
		{"network label", network, "unavailable"},
		{"duplicate key", duplicate, "store"},
		{"arbitrary", errors.New("boom"), "store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify("op", tt.err)
			if tt.err == nil {
				require.NoError(t, classified)
				return
			}
			require.Error(t, classified)
			assert.Equal(t, tt.kind, Kind(classified))
			assert.Contains(t, classified.Error(), tt.err.Error())
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	first := Classify("find_one", errors.New("boom"))
	second := Classify("other", first)
	assert.Same(t, first, second)
}

func TestIsDuplicateKey(t *testing.T) {
	duplicate := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000"}}}

	assert.True(t, IsDuplicateKey(Classify("insert_one", duplicate)))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
}

func TestKindUnknown(t *testing.T) {
	assert.Equal(t, "unknown", Kind(errors.New("raw")))
}
