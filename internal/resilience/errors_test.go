package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped explicit", fmt.Errorf("ai: openai: %w", NewTransientError(errors.New("429"), 429)), true},
		{"net timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"text pattern", errors.New("Post http://localhost:11434: connection refused"), true},
		{"eof", errors.New("unexpected EOF"), true},
		{"permanent", errors.New("400 bad request: model not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("%d should be transient", code)
		}
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 501} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("%d should not be transient", code)
		}
	}
}

func TestForStatus(t *testing.T) {
	base := errors.New("upstream")

	if ForStatus(nil, 503) != nil {
		t.Error("nil error should stay nil")
	}

	err := ForStatus(base, 429)
	var te *TransientError
	if !errors.As(err, &te) || te.StatusCode != 429 {
		t.Errorf("429 should wrap as transient, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to base")
	}

	if err := ForStatus(base, 401); err != base {
		t.Errorf("401 should pass through, got %v", err)
	}
}
