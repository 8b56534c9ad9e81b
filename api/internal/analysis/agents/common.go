// Package agents implements the per-subject extraction agents. Each one
// owns a prompt and an output schema, delegates the model call to the
// gateway and enforces its schema on the repaired result.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/gateway"
)

// NewRegistry builds the full agent set over one shared gateway.
func NewRegistry(gw gateway.Invoker) analysis.Registry {
	return analysis.Registry{
		analysis.AgentMath:    NewMathScience(analysis.AgentMath, gw),
		analysis.AgentScience: NewMathScience(analysis.AgentScience, gw),
		analysis.AgentLang:    NewLanguage(gw),
		analysis.AgentStudy:   NewStudy(gw),
		analysis.AgentGeneric: NewGeneric(gw),
	}
}

func userPrompt(in analysis.Input, task string) string {
	var b strings.Builder
	b.WriteString(task)
	if in.Routing.GradeLevel != "" && in.Routing.GradeLevel != analysis.GradeUnknown {
		fmt.Fprintf(&b, " grade_hint=%q.", in.Routing.GradeLevel)
	}
	if s := strings.TrimSpace(in.Routing.Subject); s != "" {
		fmt.Fprintf(&b, " subject_hint=%q.", s)
	}
	if in.Prefs.DetailLevel != "" {
		fmt.Fprintf(&b, " detail=%q.", in.Prefs.DetailLevel)
	}
	if in.Prefs.PreferredLanguage != "" {
		fmt.Fprintf(&b, " answer_language=%q.", in.Prefs.PreferredLanguage)
	}
	b.WriteString("\nOCR blocks (Y is the normalized 0..1 vertical span):\n")
	b.WriteString(analysis.RenderFragments(in.Fragments))
	return b.String()
}

func invokeExercises(ctx context.Context, gw gateway.Invoker, id analysis.AgentID, system, schema string, in analysis.Input) (wireExerciseList, error) {
	res, err := gw.Invoke(ctx, gateway.Request{
		System:     system,
		User:       userPrompt(in, "Extract every exercise from the page."),
		SchemaJSON: schema,
		Image:      in.Image,
		MIME:       in.MIME,
	})
	if err != nil {
		return wireExerciseList{}, err
	}
	var w wireExerciseList
	if err := json.Unmarshal(res.JSON, &w); err != nil {
		return wireExerciseList{}, &analysis.SchemaError{Agent: id, Reasons: []string{"payload does not match exercise schema: " + err.Error()}}
	}
	if len(w.Exercises) == 0 {
		return wireExerciseList{}, &analysis.SchemaError{Agent: id, Reasons: []string{"no exercises extracted"}}
	}
	allEmpty := true
	for _, e := range w.Exercises {
		if strings.TrimSpace(e.QuestionText) != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return wireExerciseList{}, &analysis.SchemaError{Agent: id, Reasons: []string{"every exercise is missing question_text"}}
	}
	return w, nil
}

// numberRe accepts the model's own exercise identifiers: "3", "2a",
// "IV.1" and the like. Anything else gets a sequential fallback so every
// exercise carries a non-empty number.
var numberRe = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z.]{0,7}$`)

func exerciseNumber(raw string, seq int) string {
	n := strings.TrimSpace(raw)
	n = strings.TrimRight(n, ".)")
	if numberRe.MatchString(n) {
		return n
	}
	return strconv.Itoa(seq)
}

// normalizeExercise converts one wire exercise into the canonical shape.
// seq is the 1-based fallback identifier; fallbackInput is the agent's
// default when the model emitted no usable input type.
func normalizeExercise(w wireExercise, seq int, fallbackInput analysis.InputType) analysis.Exercise {
	ex := analysis.Exercise{
		Number:           exerciseNumber(w.Number, seq),
		QuestionText:     strings.TrimSpace(w.QuestionText),
		QuestionLatex:    strings.TrimSpace(w.QuestionLatex),
		Topic:            strings.TrimSpace(w.Topic),
		EstimatedMinutes: w.EstimatedMinutes,
		RelatedConcepts:  w.RelatedConcepts,
		SolutionSteps:    w.SolutionSteps,
		Position: analysis.Span{
			StartY: float64(w.StartY) / 1000,
			EndY:   float64(w.EndY) / 1000,
		}.Clamp(),
	}
	if d := analysis.Difficulty(w.Difficulty); d.Valid() {
		ex.Difficulty = d
	}
	it := analysis.InputType(w.InputType)
	if !it.Valid() {
		it = fallbackInput
	}
	ex.InputType = it
	ex.InputConfig = inputConfig(it, w, ex.QuestionText)
	return ex
}

// inputConfig populates exactly one variant for the chosen input type.
func inputConfig(it analysis.InputType, w wireExercise, questionText string) *analysis.InputConfig {
	switch it {
	case analysis.InputInline:
		ph := placeholdersFromWire(w.Placeholders)
		if len(ph) == 0 {
			ph = blankSpans(questionText)
		}
		if len(ph) == 0 {
			return nil
		}
		return &analysis.InputConfig{Placeholders: ph}
	case analysis.InputMultipleChoice:
		if len(w.Options) == 0 {
			return nil
		}
		opts := make([]analysis.ChoiceOption, 0, len(w.Options))
		for _, o := range w.Options {
			opts = append(opts, analysis.ChoiceOption{Label: o.Label, Text: o.Text})
		}
		return &analysis.InputConfig{Options: opts}
	case analysis.InputCanvas:
		kind := w.CanvasKind
		if kind == "" {
			kind = "freeform"
		}
		return &analysis.InputConfig{CanvasKind: kind}
	case analysis.InputTextArea:
		if w.MinWords == 0 && w.MaxWords == 0 {
			return nil
		}
		return &analysis.InputConfig{WordCount: &analysis.WordBounds{Min: w.MinWords, Max: w.MaxWords}}
	default:
		return nil
	}
}

func placeholdersFromWire(ws []wirePlaceholder) []analysis.Placeholder {
	out := make([]analysis.Placeholder, 0, len(ws))
	for _, p := range ws {
		if p.Offset < 0 || p.Length <= 0 {
			continue
		}
		out = append(out, analysis.Placeholder{Offset: p.Offset, Length: p.Length, Label: p.Label})
	}
	return out
}

// blankSpans finds blank markers (underscore runs, long dot runs) in the
// question text and reports them as character offsets.
var blankRe = regexp.MustCompile(`_{2,}|\.{4,}`)

func blankSpans(text string) []analysis.Placeholder {
	idx := blankRe.FindAllStringIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]analysis.Placeholder, 0, len(idx))
	for _, m := range idx {
		out = append(out, analysis.Placeholder{
			Offset: utf8.RuneCountInString(text[:m[0]]),
			Length: utf8.RuneCountInString(text[m[0]:m[1]]),
		})
	}
	return out
}

func hasBlanks(text string) bool { return blankRe.MatchString(text) }
