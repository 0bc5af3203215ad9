package service

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("email already in use")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthorized      = errors.New("authorization token required")
	ErrForbidden          = errors.New("invalid or expired token")
	ErrStorage            = errors.New("storage failure")
)

// ValidationError describes one rejected input field. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
