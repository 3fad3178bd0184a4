package custom_error

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, ""},
		{"validation", NewValidationError(FieldError{Field: "serial", Message: "required"}), KindValidation},
		{"wrapped collision", fmt.Errorf("check: %w", &CollisionError{Code: "LPT-0001"}), KindCollision},
		{"category immutable", fmt.Errorf("update: %w", ErrCategoryImmutable), KindCategoryImmutable},
		{"justification", ErrJustificationTooShort, KindJustificationTooShort},
		{"network", &NetworkError{Op: "list", Err: context.DeadlineExceeded}, KindNetwork},
		{"persistence", &PersistenceError{Op: "create", Err: errors.New("boom")}, KindPersistence},
		{"not found", ErrAssetNotFound, KindNotFound},
		{"cancelled", ErrCancelled, KindCancelled},
		{"invalid transition", fmt.Errorf("commit: %w", ErrInvalidTransition), KindInvalidTransition},
		{"plain", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestWrapCollaboratorError(t *testing.T) {
	assert.Nil(t, WrapCollaboratorError("list", nil))

	err := WrapCollaboratorError("list", fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = WrapCollaboratorError("create", errors.New("disk full"))
	assert.Equal(t, KindPersistence, KindOf(err))

	collision := &CollisionError{Code: "LPT-0001"}
	assert.Same(t, collision, WrapCollaboratorError("create", collision))
}

func TestValidationErrorOrNil(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("serial", "is required")
	err := verr.OrNil()
	assert.EqualError(t, err, "validation failed: serial: is required")
}

func TestWrapDBError(t *testing.T) {
	err := WrapConstraintError("duplicate code", "23505", "assets_location_code_key")
	var unique *UniqueViolationError
	assert.True(t, errors.As(err, &unique))
	assert.Equal(t, "assets_location_code_key", unique.Constraint())

	err = WrapDBError("missing location", "23503")
	var fk *ForeignKeyViolationError
	assert.True(t, errors.As(err, &fk))
}
