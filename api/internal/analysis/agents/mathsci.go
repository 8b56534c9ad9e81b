package agents

import (
	"context"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/gateway"
	"page-analyzer/api/internal/prompt"
)

// MathScience extracts quantitative exercises. It serves both the math
// and the science agent identifiers; science pages differ only in which
// detail fields (constants, safety notes) tend to be populated.
// Ambiguous exercises default to canvas input, since work must be shown.
type MathScience struct {
	id     analysis.AgentID
	system string
	gw     gateway.Invoker
}

func NewMathScience(id analysis.AgentID, gw gateway.Invoker) *MathScience {
	system := prompt.MathSystem
	if id == analysis.AgentScience {
		system = prompt.ScienceSystem
	}
	return &MathScience{id: id, system: system, gw: gw}
}

func (a *MathScience) ID() analysis.AgentID { return a.id }

func (a *MathScience) Extract(ctx context.Context, in analysis.Input) (analysis.AgentPayload, error) {
	w, err := invokeExercises(ctx, a.gw, a.id, a.system, prompt.MathSchema, in)
	if err != nil {
		return nil, err
	}
	exs := make([]analysis.Exercise, 0, len(w.Exercises))
	for i, we := range w.Exercises {
		ex := normalizeExercise(we, i+1, analysis.InputCanvas)
		if len(we.Formulas) > 0 || len(we.Constants) > 0 || len(we.SafetyNotes) > 0 {
			ex.Math = &analysis.MathDetails{
				Formulas:    we.Formulas,
				Constants:   we.Constants,
				SafetyNotes: we.SafetyNotes,
			}
		}
		exs = append(exs, ex)
	}
	return analysis.MathPayload{Exercises: exs}, nil
}
