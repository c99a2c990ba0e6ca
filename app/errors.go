package app

// Error is a service-level failure carrying the HTTP status it should map
// to and optional per-field validation errors.
type Error struct {
	Status  int
	Message string
	Fields  map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// ErrValidation builds a 400 validation error from field errors.
func ErrValidation(fields map[string]any) *Error {
	return &Error{Status: 400, Message: "validation failed", Fields: fields}
}

// ErrNotFound builds a 404 error.
func ErrNotFound(message string) *Error {
	return &Error{Status: 404, Message: message}
}

// ErrConflict builds a 409 error.
func ErrConflict(message string) *Error {
	return &Error{Status: 409, Message: message}
}

// ErrInternal builds a 500 error with a generic message; the cause belongs
// in the log, not the response.
func ErrInternal() *Error {
	return &Error{Status: 500, Message: "internal server error"}
}
