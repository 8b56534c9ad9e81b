// Package attest checks the client attestation token. The gate is an
// external collaborator treated as pass/fail only; nothing here inspects
// the token beyond handing it over (or comparing it to a shared secret
// in the single-box setup).
package attest

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrMissing  = errors.New("attestation token missing")
	ErrRejected = errors.New("attestation token rejected")
)

type Gate interface {
	Verify(ctx context.Context, token string) error
}

// New picks the gate implementation: a remote pass/fail endpoint when
// url is set, otherwise a shared-secret comparison. With neither
// configured, any non-empty token passes (dev mode).
func New(url, secret string) Gate {
	if strings.TrimSpace(url) != "" {
		return &remoteGate{
			url:   strings.TrimSpace(url),
			httpc: &http.Client{Timeout: 10 * time.Second},
		}
	}
	return &secretGate{secret: secret}
}

type secretGate struct {
	secret string
}

func (g *secretGate) Verify(_ context.Context, token string) error {
	if token == "" {
		return ErrMissing
	}
	if g.secret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(g.secret)) != 1 {
		return ErrRejected
	}
	return nil
}

type remoteGate struct {
	url   string
	httpc *http.Client
}

func (g *remoteGate) Verify(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissing
	}
	body, _ := json.Marshal(map[string]string{"token": token})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("attestation gate unavailable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrRejected
	default:
		return fmt.Errorf("attestation gate status %d", resp.StatusCode)
	}
}
