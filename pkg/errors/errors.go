package custom_error

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for the operator-facing layer.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindCollision             Kind = "collision"
	KindCategoryImmutable     Kind = "category_immutable"
	KindJustificationTooShort Kind = "justification_too_short"
	KindNetwork               Kind = "network"
	KindPersistence           Kind = "persistence"
	KindNotFound              Kind = "not_found"
	KindCancelled             Kind = "cancelled"
	KindInvalidTransition     Kind = "invalid_transition"
	KindInternal              Kind = "internal"
)

var (
	ErrCategoryImmutable     = errors.New("category cannot be changed once the asset is registered")
	ErrJustificationTooShort = errors.New("justification must be at least 10 characters long")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrAssetNotFound         = errors.New("asset not found")
	ErrCancelled             = errors.New("operation cancelled by operator")
	ErrInvalidTransition     = errors.New("operation not allowed in the current state")
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// CollisionError reports that a code is already taken in a location. It is
// not fatal: Suggestion holds a code that was free when the check ran.
type CollisionError struct {
	Code       string
	Suggestion string
	LocationID int
}

func (e *CollisionError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("asset code %s is already used in location %d", e.Code, e.LocationID)
	}
	return fmt.Sprintf("asset code %s is already used in location %d, suggested %s", e.Code, e.LocationID, e.Suggestion)
}

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence error: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapCollaboratorError tags a failed collaborator call. Deadline and
// cancellation errors become NetworkError; already classified errors pass
// through unchanged.
func WrapCollaboratorError(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindInternal {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &NetworkError{Op: op, Err: err}
	}
	return &PersistenceError{Op: op, Err: err}
}

func KindOf(err error) Kind {
	var (
		validationErr  *ValidationError
		collisionErr   *CollisionError
		networkErr     *NetworkError
		persistenceErr *PersistenceError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrJustificationTooShort):
		return KindJustificationTooShort
	case errors.Is(err, ErrCategoryImmutable):
		return KindCategoryImmutable
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrCategoryNotFound), errors.Is(err, ErrAssetNotFound):
		return KindNotFound
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &collisionErr):
		return KindCollision
	case errors.As(err, &networkErr):
		return KindNetwork
	case errors.As(err, &persistenceErr):
		return KindPersistence
	default:
		return KindInternal
	}
}
