package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/attest"
	"page-analyzer/api/internal/gateway"
	"page-analyzer/api/internal/store"
	"page-analyzer/api/internal/util"
)

type AnalyzeRequest struct {
	Image string `json:"image"`
	// pointer so a missing field is distinguishable from an empty list
	OCRFragments *[]analysis.OCRFragment `json:"ocrFragments"`
	Preferences  *analysis.Preferences   `json:"preferences"`
}

func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	// attestation first: rejected clients never reach a model call
	if err := h.gate.Verify(r.Context(), r.Header.Get(AttestHeader)); err != nil {
		switch {
		case errors.Is(err, attest.ErrMissing), errors.Is(err, attest.ErrRejected):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			log.Printf("analyze: attestation gate: %v", err)
			writeError(w, http.StatusBadGateway, "attestation gate unavailable")
		}
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if req.OCRFragments == nil || len(*req.OCRFragments) == 0 {
		writeError(w, http.StatusBadRequest, "missing ocrFragments")
		return
	}
	fragments := *req.OCRFragments
	for i, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("ocrFragments[%d]: empty text", i))
			return
		}
		if f.StartY < 0 || f.EndY > 1 || f.StartY > f.EndY {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("ocrFragments[%d]: bad span %.3f-%.3f", i, f.StartY, f.EndY))
			return
		}
	}
	if strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "missing image")
		return
	}
	img, mimeHint, err := util.DecodeBase64MaybeDataURL(req.Image)
	if err != nil || len(img) == 0 {
		writeError(w, http.StatusBadRequest, "bad image base64")
		return
	}
	mime := util.PickMIME("", mimeHint, img)

	deadline := defaultTimeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), deadline)
	defer cancel()

	imageHash := util.SHA256Hex(img)
	if h.repo != nil {
		if cached, err := h.repo.FindByHash(ctx, imageHash, h.model, h.cacheTTL); err == nil {
			log.Printf("analyze: cache hit for %s", imageHash[:12])
			writeJSON(w, http.StatusOK, cached)
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Printf("analyze: cache lookup: %v", err)
		}
	}

	var prefs analysis.Preferences
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	env, err := h.svc.Analyze(ctx, analysis.Request{
		Image:     img,
		MIME:      mime,
		Fragments: fragments,
		Prefs:     prefs,
	})
	if err != nil {
		h.writeAnalyzeError(w, ctx, err)
		return
	}

	if h.repo != nil {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := h.repo.Upsert(sctx, imageHash, h.model, env); err != nil {
			log.Printf("analyze: cache upsert: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *Handle) writeAnalyzeError(w http.ResponseWriter, ctx context.Context, err error) {
	var terr *gateway.TransportError
	var derr *gateway.DecodeError
	var cerr *analysis.ClassificationError
	var serr *analysis.SchemaError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
	case errors.Is(err, context.Canceled):
		// client went away; status is moot but keep the log honest
		log.Printf("analyze: request cancelled")
		writeError(w, 499, "request cancelled")
	case errors.As(err, &terr):
		log.Printf("analyze: model transport: %v", terr)
		writeError(w, http.StatusBadGateway, "upstream model failure: "+terr.Error())
	case errors.As(err, &derr):
		log.Printf("analyze: model decode: %v", derr)
		writeError(w, http.StatusBadGateway, "upstream model returned undecodable output")
	case errors.As(err, &cerr):
		log.Printf("analyze: classification: %v", cerr)
		writeError(w, http.StatusBadGateway, "classification failed")
	case errors.As(err, &serr):
		log.Printf("analyze: schema: %v", serr)
		writeError(w, http.StatusBadGateway, "extraction produced no usable payload")
	default:
		log.Printf("analyze: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
