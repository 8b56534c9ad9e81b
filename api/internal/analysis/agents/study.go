package agents

import (
	"context"
	"encoding/json"
	"strings"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/gateway"
	"page-analyzer/api/internal/prompt"
)

// Study handles lesson pages: it emits a lesson summary and, when the
// page mixes in practice exercises, extracts those as well.
type Study struct {
	gw gateway.Invoker
}

func NewStudy(gw gateway.Invoker) *Study { return &Study{gw: gw} }

func (a *Study) ID() analysis.AgentID { return analysis.AgentStudy }

func (a *Study) Extract(ctx context.Context, in analysis.Input) (analysis.AgentPayload, error) {
	res, err := a.gw.Invoke(ctx, gateway.Request{
		System:     prompt.StudySystem,
		User:       userPrompt(in, "Summarize the lesson content and extract any practice exercises."),
		SchemaJSON: prompt.StudySchema,
		Image:      in.Image,
		MIME:       in.MIME,
	})
	if err != nil {
		return nil, err
	}
	var w wireStudy
	if err := json.Unmarshal(res.JSON, &w); err != nil {
		return nil, &analysis.SchemaError{Agent: analysis.AgentStudy, Reasons: []string{"payload does not match study schema: " + err.Error()}}
	}
	if w.Summary == nil || strings.TrimSpace(w.Summary.Title) == "" {
		return nil, &analysis.SchemaError{Agent: analysis.AgentStudy, Reasons: []string{"lesson summary is missing"}}
	}

	sum := &analysis.StudyMaterialSummary{
		Title:       strings.TrimSpace(w.Summary.Title),
		Theorems:    w.Summary.Theorems,
		Definitions: w.Summary.Definitions,
	}
	for _, kp := range w.Summary.KeyPoints {
		if strings.TrimSpace(kp.Text) == "" {
			continue
		}
		imp := kp.Importance
		switch imp {
		case "core", "supporting", "extra":
		default:
			imp = "supporting"
		}
		sum.KeyPoints = append(sum.KeyPoints, analysis.KeyPoint{Text: kp.Text, Importance: imp})
	}

	exs := make([]analysis.Exercise, 0, len(w.Exercises))
	for i, we := range w.Exercises {
		ex := normalizeExercise(we, i+1, analysis.InputTextInput)
		ex.Study = &analysis.StudyDetails{SourceSection: sum.Title}
		exs = append(exs, ex)
	}
	return analysis.StudyPayload{Summary: sum, Exercises: exs}, nil
}
