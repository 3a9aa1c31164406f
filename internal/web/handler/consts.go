// Package handler holds what the API handlers share: dependencies, routes and error responses.
package handler

const (
	// RootPath is the prefix of every permission API route.
	RootPath = "/api/permissions"

	// ErrNilDepsFatalLogMsg is used if router, store or validator is nil.
	ErrNilDepsFatalLogMsg = "router, store or validator is nil"

	// ErrInvalidBody is returned for a request body that cannot be decoded.
	ErrInvalidBody = "invalid request body"

	// ErrValidationPrefix prefixes validation error messages.
	ErrValidationPrefix = "validation failed: "

	// ErrInternal is returned when a request fails for a reason the caller cannot fix.
	ErrInternal = "internal server error"
)
