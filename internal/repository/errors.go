// Package repository implements the data access layer on top of
// database/sql. Sentinel errors defined here let handlers distinguish
// failure scenarios without string matching: ErrForbidden maps to HTTP
// 403, ErrConflict to 409, and not-found conditions surface as
// sql.ErrNoRows from the individual repositories.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own (non-host mutating an event, non-author
// editing a notice).
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert collides with existing state,
// such as joining an event twice.
var ErrConflict = errors.New("conflict")
