package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"page-analyzer/api/internal/gateway"
	"page-analyzer/api/internal/prompt"
)

// ClassificationError means the routing model call succeeded over the
// wire but did not yield a usable classification.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string { return "router: " + e.Err.Error() }
func (e *ClassificationError) Unwrap() error { return e.Err }

// Router issues the single classification call and maps the emitted
// subject to an agent through ResolveAgent. Confidence is surfaced to
// the caller but never gates routing.
type Router struct {
	gw gateway.Invoker
}

func NewRouter(gw gateway.Invoker) *Router { return &Router{gw: gw} }

func (r *Router) Classify(ctx context.Context, image []byte, mime string, fragments []OCRFragment) (RoutingDecision, error) {
	user := "Classify this homework page.\nOCR blocks (Y is the normalized 0..1 vertical span):\n" +
		RenderFragments(fragments)
	res, err := r.gw.Invoke(ctx, gateway.Request{
		System:     prompt.RouteSystem,
		User:       user,
		SchemaJSON: prompt.RouteSchema,
		Image:      image,
		MIME:       mime,
	})
	if err != nil {
		return RoutingDecision{}, err
	}

	var w struct {
		Subject     string  `json:"subject"`
		ContentType string  `json:"content_type"`
		GradeLevel  string  `json:"grade_level"`
		Confidence  float64 `json:"confidence"`
	}
	if err := json.Unmarshal(res.JSON, &w); err != nil {
		return RoutingDecision{}, &ClassificationError{Err: err}
	}

	d := RoutingDecision{
		Subject:     strings.ToLower(strings.TrimSpace(w.Subject)),
		ContentType: contentTypeOrDefault(w.ContentType),
		GradeLevel:  gradeOrDefault(w.GradeLevel),
		Confidence:  clamp01(w.Confidence),
	}
	d.AgentID = ResolveAgent(d.Subject, d.ContentType)
	return d, nil
}

func contentTypeOrDefault(s string) ContentType {
	switch ContentType(s) {
	case ContentStudyMaterial, ContentExercises, ContentHybrid:
		return ContentType(s)
	}
	return ContentExercises
}

func gradeOrDefault(s string) GradeLevel {
	switch GradeLevel(s) {
	case GradeElementary, GradeMiddle, GradeHigh:
		return GradeLevel(s)
	}
	return GradeUnknown
}
