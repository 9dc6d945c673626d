package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrQueryRequired indicates an empty or whitespace-only query
	ErrQueryRequired = errors.New("query is required")

	// ErrQueryTooLong indicates a query longer than MaxQueryLength characters
	ErrQueryTooLong = errors.New("query must be 200 characters or less")

	// ErrUnknownService indicates a service identifier outside the supported set
	ErrUnknownService = errors.New("unknown service")

	// ErrInvalidDate indicates a date filter that is not YYYY-MM-DD
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidFileType indicates an unsupported file type filter
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrNotConnected indicates no token is stored for the service
	ErrNotConnected = errors.New("service not connected")

	// ErrNoRefreshToken indicates the stored token is stale and cannot be refreshed
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrRefreshFailed indicates the provider rejected or failed a refresh
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrProviderNotConfigured indicates missing OAuth client credentials
	ErrProviderNotConfigured = errors.New("oauth provider not configured")

	// ErrInvalidState indicates an unknown, expired or reused OAuth state
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrTokenExpired indicates the session token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the session token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
