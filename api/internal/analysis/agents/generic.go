package agents

import (
	"context"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/gateway"
	"page-analyzer/api/internal/prompt"
)

// Generic is the fallback extractor: used when routing cannot name a
// subject, and as the second leg of the fallback chain when a subject
// agent returns an undecodable payload.
type Generic struct {
	gw gateway.Invoker
}

func NewGeneric(gw gateway.Invoker) *Generic { return &Generic{gw: gw} }

func (a *Generic) ID() analysis.AgentID { return analysis.AgentGeneric }

func (a *Generic) Extract(ctx context.Context, in analysis.Input) (analysis.AgentPayload, error) {
	w, err := invokeExercises(ctx, a.gw, analysis.AgentGeneric, prompt.GenericSystem, prompt.GenericSchema, in)
	if err != nil {
		return nil, err
	}
	exs := make([]analysis.Exercise, 0, len(w.Exercises))
	for i, we := range w.Exercises {
		if hasBlanks(we.QuestionText) {
			we.InputType = string(analysis.InputInline)
		} else if len(we.Options) > 0 && we.InputType == "" {
			we.InputType = string(analysis.InputMultipleChoice)
		}
		exs = append(exs, normalizeExercise(we, i+1, analysis.InputTextInput))
	}
	return analysis.GenericPayload{Exercises: exs}, nil
}
