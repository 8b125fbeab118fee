package domain

import "errors"

// Services wrap these with fmt.Errorf("%w: ...") and the HTTP error handler
// maps them to status codes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)
