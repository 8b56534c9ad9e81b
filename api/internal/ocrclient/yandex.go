// Package ocrclient wraps Yandex Vision OCR for the bot front-end: it
// turns a photo into the OCR fragments the analyzer API expects. The
// mobile app does its OCR on device; this client fills the same role for
// photos arriving over Telegram.
package ocrclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/util"
)

type Client struct {
	iamc     *IamClient
	folderID string
	httpc    *http.Client
}

func New(oauthToken, folderID string) *Client {
	return &Client{
		iamc:     NewIamClient(oauthToken),
		folderID: folderID,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`
	LanguageCodes []string `json:"languageCodes,omitempty"`
	Model         string   `json:"model,omitempty"`
}

type vertex struct {
	X json.Number `json:"x"`
	Y json.Number `json:"y"`
}

type block struct {
	BoundingBox *struct {
		Vertices []vertex `json:"vertices"`
	} `json:"boundingBox,omitempty"`
	Lines []struct {
		Text string `json:"text,omitempty"`
	} `json:"lines,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *struct {
			Width  json.Number `json:"width,omitempty"`
			Height json.Number `json:"height,omitempty"`
			Blocks []block     `json:"blocks,omitempty"`
		} `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

// Recognize runs OCR and returns the page's text blocks as normalized
// fragments. When the response carries block geometry, vertical spans
// come from the bounding boxes; otherwise blocks are spaced evenly down
// the page as a best effort.
func (c *Client) Recognize(ctx context.Context, image []byte, langs []string) ([]analysis.OCRFragment, error) {
	iamToken, err := c.iamc.Token(ctx)
	if err != nil {
		return nil, err
	}
	reqBody := request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      sniffMimeForOCR(image),
		LanguageCodes: langs,
		Model:         "page",
	}
	payload, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST",
		"https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText",
		bytes.NewReader(payload),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", c.folderID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// one retry with a fresh IAM token
		if iamToken, err = c.iamc.Token(ctx); err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+iamToken)
		resp, err = c.httpc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
	}
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return nil, nil
	}
	ta := out.Result.TextAnnotation
	pageH, _ := ta.Height.Float64()
	return fragmentsFromBlocks(ta.Blocks, pageH), nil
}

func fragmentsFromBlocks(blocks []block, pageH float64) []analysis.OCRFragment {
	var frs []analysis.OCRFragment
	for _, b := range blocks {
		var lines []string
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
		if len(lines) == 0 {
			continue
		}
		fr := analysis.OCRFragment{Text: strings.Join(lines, "\n")}
		if top, bottom, ok := blockSpan(b, pageH); ok {
			fr.StartY, fr.EndY = top, bottom
		}
		frs = append(frs, fr)
	}
	// even spacing for blocks with no usable geometry
	n := float64(len(frs))
	for i := range frs {
		if frs[i].StartY == 0 && frs[i].EndY == 0 {
			frs[i].StartY = float64(i) / n
			frs[i].EndY = float64(i+1) / n
		}
	}
	return frs
}

func blockSpan(b block, pageH float64) (top, bottom float64, ok bool) {
	if b.BoundingBox == nil || pageH <= 0 {
		return 0, 0, false
	}
	top, bottom = 1, 0
	for _, v := range b.BoundingBox.Vertices {
		y, err := v.Y.Float64()
		if err != nil {
			continue
		}
		y /= pageH
		if y < top {
			top = y
		}
		if y > bottom {
			bottom = y
		}
	}
	if top > bottom {
		return 0, 0, false
	}
	sp := analysis.Span{StartY: top, EndY: bottom}.Clamp()
	return sp.StartY, sp.EndY, true
}

func sniffMimeForOCR(b []byte) string {
	switch util.SniffMimeHTTP(b) {
	case "image/jpeg":
		return "JPEG"
	case "image/png":
		return "PNG"
	}
	return ""
}
