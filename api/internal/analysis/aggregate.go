package analysis

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"
)

// AssembleInfo carries the request-scoped bookkeeping the aggregator
// folds into the envelope metadata.
type AssembleInfo struct {
	RequestID     string
	AgentsInvoked []string
	ModelVersions map[string]string
	Started       time.Time
}

// Assemble normalizes an agent payload into the canonical envelope:
// per-variant flattening, exclusion accounting, and the single
// deterministic ordering rule (ascending position.startY).
func Assemble(routing RoutingDecision, payload AgentPayload, info AssembleInfo) AnalysisEnvelope {
	var exs []Exercise
	var summary *StudyMaterialSummary
	switch p := payload.(type) {
	case MathPayload:
		exs = p.Exercises
	case LanguagePayload:
		exs = p.Exercises
	case StudyPayload:
		exs = p.Exercises
		summary = p.Summary
	case GenericPayload:
		exs = p.Exercises
	}

	kept, excluded, warnings := screen(info.RequestID, exs)
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Position.StartY < kept[j].Position.StartY
	})

	return AnalysisEnvelope{
		Routing: routing,
		Analysis: Analysis{
			Exercises:     kept,
			LessonSummary: summary,
		},
		Metadata: Metadata{
			RequestID:         info.RequestID,
			ProcessingTimeMs:  time.Since(info.Started).Milliseconds(),
			AgentsInvoked:     info.AgentsInvoked,
			ModelVersions:     info.ModelVersions,
			Timestamp:         time.Now().UTC(),
			ExcludedExercises: excluded,
			Warnings:          warnings,
		},
	}
}

// screen applies the never-drop-silently rule: an exercise that cannot
// be coerced into the canonical shape is excluded with a logged reason,
// and the exclusion is counted so the caller can detect partial results.
func screen(requestID string, exs []Exercise) (kept []Exercise, excluded int, warnings []string) {
	kept = make([]Exercise, 0, len(exs))
	for i, ex := range exs {
		if ex.QuestionText == "" {
			excluded++
			msg := fmt.Sprintf("exercise %q excluded: missing question text", ex.Number)
			warnings = append(warnings, msg)
			log.Printf("assemble [%s]: %s", requestID, msg)
			continue
		}
		if ex.Number == "" {
			ex.Number = strconv.Itoa(i + 1)
		}
		if !ex.InputType.Valid() {
			warnings = append(warnings, fmt.Sprintf("exercise %q: unknown input type coerced to text_input", ex.Number))
			ex.InputType = InputTextInput
			ex.InputConfig = nil
		}
		ex.Position = ex.Position.Clamp()
		kept = append(kept, ex)
	}
	return kept, excluded, warnings
}
