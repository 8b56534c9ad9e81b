// Package handle is the HTTP entry point: input validation, the
// attestation gate, the outer request timeout and the mapping from
// internal errors to transport-level responses.
package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/attest"
	"page-analyzer/api/internal/store"
)

// AttestHeader carries the opaque client attestation token.
const AttestHeader = "X-Attestation-Token"

const defaultTimeout = 120 * time.Second

type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.AnalysisEnvelope, error)
}

type Handle struct {
	svc      Analyzer
	gate     attest.Gate
	repo     *store.AnalysisRepo // nil disables caching
	model    string
	cacheTTL time.Duration
}

func New(svc Analyzer, gate attest.Gate, repo *store.AnalysisRepo, model string, cacheTTL time.Duration) *Handle {
	return &Handle{svc: svc, gate: gate, repo: repo, model: model, cacheTTL: cacheTTL}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
