package retry

import (
	"fmt"
	"net/http"
)

// TimeoutError is returned when no response arrived within the attempt deadline.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: timeout", e.Op)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError is a connection-level failure that happened before any HTTP
// status was known.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError carries a non-2xx response status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: http %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsServer reports a 5xx status.
func (e *HTTPError) IsServer() bool { return e.StatusCode >= 500 }

// IsRateLimited reports 429 Too Many Requests.
func (e *HTTPError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// IsRequestTimeout reports 408 Request Timeout.
func (e *HTTPError) IsRequestTimeout() bool { return e.StatusCode == http.StatusRequestTimeout }

// IsClient reports a 4xx status other than 408 and 429.
func (e *HTTPError) IsClient() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && !e.IsRateLimited() && !e.IsRequestTimeout()
}

// RetryExhaustedError is returned after every attempt failed with a retryable
// error. It unwraps to the last underlying error.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }
