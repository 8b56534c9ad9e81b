package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiCaller performs one generateContent call against Gemini with a
// JSON response MIME type. The response schema travels as schema text in
// the system instruction; enforcement happens in the agents after repair.
type geminiCaller struct {
	apiKey string
	model  string
}

func (c *geminiCaller) generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(c.model))
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	sys := []genai.Part{genai.Text(req.System)}
	if req.SchemaJSON != "" {
		sys = append(sys, genai.Text("\nAnswer strictly as JSON matching this schema. Any text outside JSON is an error:\n"+req.SchemaJSON))
	}
	m.SystemInstruction = &genai.Content{Parts: sys}

	parts := []genai.Part{genai.Text(req.User)}
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Blob{MIMEType: req.MIME, Data: req.Image})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return strings.TrimSpace(string(t))
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
