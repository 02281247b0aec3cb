package retry

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// networkMarkers are substrings of connection-level failure messages.
var networkMarkers = []string{
	"network request failed",
	"network error",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"host is down",
	"unexpected eof",
}

// ShouldRetry is the default classifier. Timeouts, network failures, 5xx, 408
// and 429 are retryable; everything else fails fast.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsServer() || httpErr.IsRateLimited() || httpErr.IsRequestTimeout()
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range networkMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
