package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout error", &TimeoutError{Op: "GET /jobs"}, true},
		{"deadline exceeded", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"network error", &NetworkError{Op: "GET /jobs", Err: errors.New("dial")}, true},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, true},
		{"network message", errors.New("Network request failed"), true},
		{"connection refused message", errors.New("dial tcp 127.0.0.1:80: connect: connection refused"), true},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"503", &HTTPError{StatusCode: 503}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"400", &HTTPError{StatusCode: 400}, false},
		{"401", &HTTPError{StatusCode: 401}, false},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"wrapped 404", fmt.Errorf("push job: %w", &HTTPError{StatusCode: 404}), false},
		{"unknown error", errors.New("invalid payload"), false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Errorf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestHTTPErrorKinds(t *testing.T) {
	if !(&HTTPError{StatusCode: 502}).IsServer() {
		t.Error("502 should be a server error")
	}
	if !(&HTTPError{StatusCode: 403}).IsClient() {
		t.Error("403 should be a client error")
	}
	if (&HTTPError{StatusCode: 429}).IsClient() {
		t.Error("429 should not be a plain client error")
	}
	if (&HTTPError{StatusCode: 408}).IsClient() {
		t.Error("408 should not be a plain client error")
	}
}
