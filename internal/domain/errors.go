package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested title does not exist upstream
	ErrNotFound = errors.New("media not found")

	// ErrServiceUnavailable indicates the metadata API is unreachable
	ErrServiceUnavailable = errors.New("metadata service is unreachable")

	// ErrAuthFailed indicates the API key was rejected
	ErrAuthFailed = errors.New("api key is invalid")

	// ErrRateLimited indicates the upstream quota was exceeded
	ErrRateLimited = errors.New("rate limited by metadata service")

	// ErrInvalidFormat indicates an import document is not a watchlist export
	ErrInvalidFormat = errors.New("invalid watchlist format")

	// ErrNotConfigured indicates no API key is configured
	ErrNotConfigured = errors.New("api key is not configured")
)
