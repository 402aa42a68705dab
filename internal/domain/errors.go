package domain

import "errors"

// Error taxonomy shared by every layer. More specific causes wrap one of these
// so callers can branch with errors.Is regardless of where the failure began.
var (
	// ErrInvalidInput is returned for requests rejected before any I/O
	// (empty owner or text, oversized or disallowed attachment).
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated is returned when no valid identity is available.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUploadFailed is returned when the attachment could not be persisted.
	// No message record exists for the attempt.
	ErrUploadFailed = errors.New("attachment upload failed")

	// ErrUnavailable is returned when the backing store cannot be reached or
	// the operation ran out of time. Nothing was written.
	ErrUnavailable = errors.New("store unavailable")

	// ErrNotFound is reserved for single-record lookups.
	ErrNotFound = errors.New("not found")
)
