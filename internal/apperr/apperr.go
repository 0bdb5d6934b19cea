// Package apperr defines the application error taxonomy shared by both
// services. Repositories and services wrap these sentinels with context and
// let them propagate; the echo error handler translates them to HTTP
// statuses in one place.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrAuthentication = errors.New("authentication failed")
	ErrValidation     = errors.New("validation failed")
)
