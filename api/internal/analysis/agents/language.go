package agents

import (
	"context"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/gateway"
	"page-analyzer/api/internal/prompt"
)

// Language extracts language exercises. Classification is best-effort by
// prompt instruction; the one rule enforced server-side is that a
// question text containing blank markers is always inline, with the
// placeholder offsets extracted.
type Language struct {
	gw gateway.Invoker
}

func NewLanguage(gw gateway.Invoker) *Language { return &Language{gw: gw} }

func (a *Language) ID() analysis.AgentID { return analysis.AgentLang }

func (a *Language) Extract(ctx context.Context, in analysis.Input) (analysis.AgentPayload, error) {
	w, err := invokeExercises(ctx, a.gw, analysis.AgentLang, prompt.LanguageSystem, prompt.LanguageSchema, in)
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
		ex := normalizeExercise(we, i+1, analysis.InputTextInput)
		if we.TargetLanguage != "" || we.SkillFocus != "" {
			ex.Language = &analysis.LanguageDetails{
				TargetLanguage: we.TargetLanguage,
				SkillFocus:     we.SkillFocus,
			}
		}
		exs = append(exs, ex)
	}
	return analysis.LanguagePayload{Exercises: exs}, nil
}
