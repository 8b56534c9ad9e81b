// Package gateway is the single point of contact with the generative
// model. It builds a structured-output request, applies retry/backoff to
// transient transport failures, repairs the raw response text, and hands
// validated JSON back to the caller.
package gateway

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"page-analyzer/api/internal/repair"
)

// RetryConfig is an immutable per-call policy. A zero value is replaced
// by Default(); callers needing a different budget pass their own copy.
type RetryConfig struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // backoff(n) = BaseDelay * 2^n + jitter
	MaxJitter   time.Duration
}

func DefaultRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxJitter:   time.Second,
	}
}

func (c RetryConfig) backoff(n int) time.Duration {
	d := c.BaseDelay << uint(n)
	if c.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(c.MaxJitter)))
	}
	return d
}

// Request carries one structured-output model call: a system instruction,
// the response schema as JSON-schema text, the user prompt and an optional
// image part.
type Request struct {
	System     string
	User       string
	SchemaJSON string
	Image      []byte
	MIME       string
}

type Result struct {
	JSON     json.RawMessage
	Attempts int
	Model    string
}

// Invoker is the seam the router and agents depend on.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Result, error)
}

// caller performs one raw model call and returns the response text.
type caller interface {
	generate(ctx context.Context, req Request) (string, error)
}

// Gateway is stateless and safe to share between concurrent requests;
// each Invoke owns its attempt counter.
type Gateway struct {
	model string
	retry RetryConfig
	call  caller
}

func New(apiKey, model string, retry RetryConfig) *Gateway {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetry()
	}
	return &Gateway{
		model: model,
		retry: retry,
		call:  &geminiCaller{apiKey: apiKey, model: model},
	}
}

func (g *Gateway) Model() string { return g.model }

// Invoke runs the retry state machine: transient transport failures are
// retried with exponential backoff up to the configured budget; anything
// else fails fast. A response that survives HTTP but does not parse even
// after repair is a content error, surfaced immediately without a network
// retry. Each retry is a fresh model call and fully replaces the prior
// attempt's output.
func (g *Gateway) Invoke(ctx context.Context, req Request) (Result, error) {
	var lastErr error
	var lastStatus int
	for n := 0; n < g.retry.MaxAttempts; n++ {
		if n > 0 {
			if err := sleep(ctx, g.retry.backoff(n-1)); err != nil {
				return Result{}, err
			}
		}
		raw, err := g.call.generate(ctx, req)
		attempts := n + 1
		if err != nil {
			if ctx.Err() != nil {
				// Outer timeout or cancellation: abandon retries,
				// no partial result.
				return Result{}, ctx.Err()
			}
			status, transient := classify(err)
			if !transient {
				return Result{}, &TransportError{Status: status, Attempts: attempts, Err: err}
			}
			lastErr, lastStatus = err, status
			continue
		}
		cleaned := repair.Repair(raw)
		if !json.Valid([]byte(cleaned)) {
			return Result{}, &DecodeError{Model: g.model, Raw: raw}
		}
		return Result{JSON: json.RawMessage(cleaned), Attempts: attempts, Model: g.model}, nil
	}
	return Result{}, &TransportError{
		Status:    lastStatus,
		Attempts:  g.retry.MaxAttempts,
		Transient: true,
		Err:       lastErr,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
