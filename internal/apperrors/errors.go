package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that the request lacks valid authentication credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates that the authenticated actor is not permitted to perform
// the requested action on this report (wrong role, not the owner, or approving
// their own report).
var ErrForbidden = errors.New("forbidden")

// ErrInvalidTransition indicates that the requested lifecycle action is not defined
// for the report's current status, regardless of who asks for it.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConflict indicates that the report's persisted status changed between the
// actor's read and the conditional write (optimistic concurrency failure).
var ErrConflict = errors.New("concurrent modification detected")
