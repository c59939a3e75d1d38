// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates caller-supplied input failed validation.
var ErrValidation = errors.New("validation failed")

// ErrConflict indicates the entity collides with an existing one, e.g. a
// tenant slug that is already taken.
var ErrConflict = errors.New("already exists")
