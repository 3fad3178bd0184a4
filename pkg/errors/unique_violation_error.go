package custom_error

import "fmt"

type CustomError interface {
	Error() string
}

type UniqueViolationError struct {
	message    string
	code       string // PostgreSQL error code (e.g., "23505")
	constraint string
}

type ForeignKeyViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23503")
}

func (f *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", f.message, f.code)
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

// Constraint is the name of the violated unique index, when the driver
// reported one.
func (e *UniqueViolationError) Constraint() string {
	return e.constraint
}

func WrapDBError(message, code string) CustomError {
	return WrapConstraintError(message, code, "")
}

func WrapConstraintError(message, code, constraint string) CustomError {
	switch code {
	case "23505":
		return &UniqueViolationError{
			message:    message,
			code:       code,
			constraint: constraint,
		}
	case "23503":
		return &ForeignKeyViolationError{
			message: "Value is already used by other resources " + message,
			code:    code,
		}
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}
