// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/session/screen layers.
var (
	// ErrNotFound indicates the requested entity does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or rejected bearer token (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user may not perform the action (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates the backend rejected the payload (HTTP 422).
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates the backend throttled the client (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrTransport indicates no response was received (network failure).
	ErrTransport = errors.New("transport failure")

	// ErrNoToken indicates there is no usable stored bearer token.
	ErrNoToken = errors.New("no token (login required)")

	// ErrThumbnailRequired indicates a project was submitted for creation without a thumbnail.
	ErrThumbnailRequired = errors.New("thumbnail required")

	// ErrCanceled indicates the user declined a confirmation prompt.
	ErrCanceled = errors.New("canceled by user")
)
