package connectors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// MapHTTPStatus maps a provider HTTP status to the normalized error code.
// ok is false for 2xx statuses.
func MapHTTPStatus(status int) (code domain.ErrorCode, ok bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrorAuthRequired, true
	case status == http.StatusTooManyRequests:
		return domain.ErrorRateLimited, true
	default:
		return domain.ErrorUnknown, true
	}
}

// IsTransportError reports whether err happened before any HTTP response
// was received: DNS, connection, TLS, timeouts and cancellation.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// ParseRetryAfter reads a Retry-After header in seconds. Returns 0 when
// absent or not a delay in seconds.
func ParseRetryAfter(h http.Header) int {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// RetrySeconds rounds a duration up to whole seconds.
func RetrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// AuthRequired builds the result for revoked or invalid credentials.
func AuthRequired(service domain.ServiceID) *domain.ServiceResult {
	return domain.ErrorResult(domain.ErrorAuthRequired,
		fmt.Sprintf("%sの認証が無効です。設定画面で再接続してください。", service.Info().Name))
}

// Forbidden builds the result for a token lacking the required scope.
// HTTP 403 is auth_required; only payload-level scope errors use this.
func Forbidden(service domain.ServiceID) *domain.ServiceResult {
	return domain.ErrorResult(domain.ErrorForbidden,
		fmt.Sprintf("%sへのアクセス権限がありません。設定画面で再接続してください。", service.Info().Name))
}

// RateLimited builds the rate_limited result. retryAfter is in seconds;
// zero means the provider gave no hint.
func RateLimited(service domain.ServiceID, retryAfter int) *domain.ServiceResult {
	name := service.Info().Name
	if retryAfter > 0 {
		return domain.ErrorResult(domain.ErrorRateLimited,
			fmt.Sprintf("%s APIのレートリミットに達しました。%d秒後に再試行してください。", name, retryAfter))
	}
	return domain.ErrorResult(domain.ErrorRateLimited,
		fmt.Sprintf("%s APIのレートリミットに達しました。数分待って再試行してください。", name))
}

// NetworkError builds the result for transport failures.
func NetworkError(service domain.ServiceID, err error) *domain.ServiceResult {
	detail := "不明なエラー"
	if err != nil {
		detail = err.Error()
	}
	return domain.ErrorResult(domain.ErrorNetwork,
		fmt.Sprintf("%s接続エラー: %s", service.Info().Name, detail))
}

// UnknownError builds the result for any other provider failure.
func UnknownError(service domain.ServiceID, detail string) *domain.ServiceResult {
	return domain.ErrorResult(domain.ErrorUnknown,
		fmt.Sprintf("%s API error: %s", service.Info().Name, detail))
}

// StatusResult maps a non-2xx HTTP response to a normalized error result.
func StatusResult(service domain.ServiceID, status int, header http.Header) *domain.ServiceResult {
	code, _ := MapHTTPStatus(status)
	switch code {
	case domain.ErrorAuthRequired:
		return AuthRequired(service)
	case domain.ErrorRateLimited:
		return RateLimited(service, ParseRetryAfter(header))
	default:
		return UnknownError(service, strconv.Itoa(status))
	}
}
