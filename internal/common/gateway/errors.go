package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type Kind string

const (
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindServer    Kind = "server"
	KindTransport Kind = "transport"
)

// ProviderError is returned for every failed upstream call. StatusCode is zero
// for transport failures.
type ProviderError struct {
	Kind       Kind
	Service    string
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Service, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a ProviderError of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == kind
}

func classifyStatus(service string, resp *http.Response, snippet string) *ProviderError {
	pe := &ProviderError{Service: service, StatusCode: resp.StatusCode}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		pe.Kind = KindAuth
		pe.Message = "authentication rejected by provider; check the configured API credentials"
	case http.StatusTooManyRequests:
		pe.Kind = KindRateLimit
		pe.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		pe.Message = "rate limit exceeded; back off before retrying"
		if pe.RetryAfter > 0 {
			pe.Message = fmt.Sprintf("rate limit exceeded; retry after %s", pe.RetryAfter)
		}
	default:
		pe.Kind = KindServer
		pe.Message = fmt.Sprintf("provider returned %s", http.StatusText(resp.StatusCode))
		if snippet != "" {
			pe.Message += ": " + snippet
		}
	}
	return pe
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}
