package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ex(number string, startY, endY float64) Exercise {
	return Exercise{
		Number:       number,
		QuestionText: "q " + number,
		Topic:        "t",
		InputType:    InputTextInput,
		Position:     Span{StartY: startY, EndY: endY},
	}
}

func testInfo() AssembleInfo {
	return AssembleInfo{
		RequestID:     "req-1",
		AgentsInvoked: []string{string(AgentMath)},
		ModelVersions: map[string]string{"router": "m"},
		Started:       time.Now(),
	}
}

func TestAssembleSortsByStartY(t *testing.T) {
	payload := MathPayload{Exercises: []Exercise{
		ex("3", 0.7, 0.9),
		ex("1", 0.1, 0.2),
		ex("2", 0.4, 0.5),
	}}
	env := Assemble(RoutingDecision{AgentID: AgentMath}, payload, testInfo())

	require.Len(t, env.Analysis.Exercises, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{
		env.Analysis.Exercises[0].Number,
		env.Analysis.Exercises[1].Number,
		env.Analysis.Exercises[2].Number,
	})
	for _, e := range env.Analysis.Exercises {
		assert.LessOrEqual(t, e.Position.StartY, e.Position.EndY)
		assert.GreaterOrEqual(t, e.Position.StartY, 0.0)
		assert.LessOrEqual(t, e.Position.EndY, 1.0)
	}
}

func TestAssembleExcludesAndCounts(t *testing.T) {
	broken := ex("2", 0.3, 0.4)
	broken.QuestionText = ""
	payload := LanguagePayload{Exercises: []Exercise{
		ex("1", 0.1, 0.2),
		broken,
		ex("3", 0.5, 0.6),
	}}
	env := Assemble(RoutingDecision{AgentID: AgentLang}, payload, testInfo())

	assert.Len(t, env.Analysis.Exercises, 2)
	assert.Equal(t, 1, env.Metadata.ExcludedExercises)
	require.NotEmpty(t, env.Metadata.Warnings)
	assert.Contains(t, env.Metadata.Warnings[0], "missing question text")
}

func TestAssembleCoercesUnknownInputType(t *testing.T) {
	odd := ex("1", 0.1, 0.2)
	odd.InputType = InputType("hologram")
	env := Assemble(RoutingDecision{AgentID: AgentGeneric}, GenericPayload{Exercises: []Exercise{odd}}, testInfo())

	require.Len(t, env.Analysis.Exercises, 1)
	assert.Equal(t, InputTextInput, env.Analysis.Exercises[0].InputType)
	assert.Equal(t, 0, env.Metadata.ExcludedExercises)
	assert.NotEmpty(t, env.Metadata.Warnings)
}

func TestAssembleCarriesStudySummary(t *testing.T) {
	sum := &StudyMaterialSummary{Title: "Fractions", KeyPoints: []KeyPoint{{Text: "a/b", Importance: "core"}}}
	env := Assemble(RoutingDecision{AgentID: AgentStudy}, StudyPayload{Summary: sum}, testInfo())

	require.NotNil(t, env.Analysis.LessonSummary)
	assert.Equal(t, "Fractions", env.Analysis.LessonSummary.Title)
	assert.Empty(t, env.Analysis.Exercises)
}
