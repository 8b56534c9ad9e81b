package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"google.golang.org/api/googleapi"
)

// TransportError is an HTTP/network failure from the model endpoint.
// Transient is set when the retry budget was exhausted on retryable
// failures; a non-retryable status fails on the first occurrence.
type TransportError struct {
	Status    int
	Attempts  int
	Transient bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Transient {
		return fmt.Sprintf("model transport failed after %d attempts (status %d): %v", e.Attempts, e.Status, e.Err)
	}
	return fmt.Sprintf("model transport failed (status %d): %v", e.Status, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a successful HTTP exchange whose body, even after
// repair, is not valid JSON.
type DecodeError struct {
	Model string
	Raw   string
}

func (e *DecodeError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "…"
	}
	return fmt.Sprintf("%s: response is not JSON after repair: %q", e.Model, raw)
}

// classify decides whether a transport failure is worth retrying:
// timeouts, connection reset/refused and HTTP >= 500 are; everything
// else is fatal on first sight.
func classify(err error) (status int, transient bool) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code, gerr.Code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 0, true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return 0, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// per-attempt transport deadline, not the caller's ctx
		return 0, true
	}
	return 0, false
}
