package google

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors"
	"github.com/tkgathr2/bulk/internal/core/domain"
)

// IsUnauthorized returns true if the error indicates invalid or
// insufficient credentials. A 403 carrying a rate-limit reason is not.
func IsUnauthorized(err error) bool {
	switch statusOf(err) {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		return !IsRateLimited(err)
	}
	return false
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting, either
// a 429 or a 403 carrying a rate-limit reason.
func IsRateLimited(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}

func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// ErrorResult converts a Google API client error into a normalized result
// and records rate limits on the limiter.
func ErrorResult(service domain.ServiceID, err error, limiter *connectors.RateLimiter) *domain.ServiceResult {
	var gerr *googleapi.Error
	switch {
	case IsRateLimited(err):
		retryAfter := 0
		if errors.As(err, &gerr) {
			retryAfter = connectors.ParseRetryAfter(gerr.Header)
		}
		if limiter != nil {
			limiter.RecordRateLimitError(retryAfter)
		}
		return connectors.RateLimited(service, retryAfter)
	case IsUnauthorized(err):
		return connectors.AuthRequired(service)
	case errors.As(err, &gerr):
		return connectors.StatusResult(service, gerr.Code, gerr.Header)
	case connectors.IsTransportError(err):
		return connectors.NetworkError(service, err)
	default:
		return connectors.UnknownError(service, err.Error())
	}
}
