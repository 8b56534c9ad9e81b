package agents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/gateway"
)

// cannedGW answers every Invoke with the same JSON body.
type cannedGW struct {
	body string
	err  error
	reqs []gateway.Request
}

func (g *cannedGW) Invoke(_ context.Context, req gateway.Request) (gateway.Result, error) {
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return gateway.Result{}, g.err
	}
	return gateway.Result{JSON: json.RawMessage(g.body), Attempts: 1, Model: "m"}, nil
}

func input() analysis.Input {
	return analysis.Input{
		Image:     []byte{0xFF, 0xD8},
		MIME:      "image/jpeg",
		Fragments: []analysis.OCRFragment{{Text: "1. Solve 2+2=?", StartY: 0.10, EndY: 0.15}},
		Routing: analysis.RoutingDecision{
			Subject:     "math",
			ContentType: analysis.ContentExercises,
			GradeLevel:  analysis.GradeMiddle,
			AgentID:     analysis.AgentMath,
			Confidence:  0.9,
		},
	}
}

func TestMathAgentSingleExercise(t *testing.T) {
	gw := &cannedGW{body: `{"exercises":[
		{"number":"1.","question_text":"Solve 2+2=?","topic":"arithmetic","start_y":100,"end_y":150}
	]}`}
	payload, err := NewMathScience(analysis.AgentMath, gw).Extract(context.Background(), input())
	require.NoError(t, err)

	mp, ok := payload.(analysis.MathPayload)
	require.True(t, ok)
	require.Len(t, mp.Exercises, 1)
	ex := mp.Exercises[0]

	assert.Equal(t, "1", ex.Number)
	assert.Equal(t, "Solve 2+2=?", ex.QuestionText)
	assert.Equal(t, analysis.InputCanvas, ex.InputType)
	require.NotNil(t, ex.InputConfig)
	assert.Equal(t, "freeform", ex.InputConfig.CanvasKind)
	assert.InDelta(t, 0.10, ex.Position.StartY, 1e-9)
	assert.InDelta(t, 0.15, ex.Position.EndY, 1e-9)
	assert.Nil(t, ex.Math)

	require.Len(t, gw.reqs, 1)
	assert.Contains(t, gw.reqs[0].User, "[Block 1] Y: 0.10-0.15 | 1. Solve 2+2=?")
	assert.Contains(t, gw.reqs[0].User, `grade_hint="middle"`)
}

func TestScienceAgentAttachesDetails(t *testing.T) {
	gw := &cannedGW{body: `{"exercises":[
		{"number":"2","question_text":"Compute the force.","input_type":"canvas","start_y":200,"end_y":300,
		 "formulas":["F = ma"],"constants":["g = 9.8 m/s^2"],"safety_notes":["no lab work required"]}
	]}`}
	payload, err := NewMathScience(analysis.AgentScience, gw).Extract(context.Background(), input())
	require.NoError(t, err)

	ex := payload.(analysis.MathPayload).Exercises[0]
	require.NotNil(t, ex.Math)
	assert.Equal(t, []string{"F = ma"}, ex.Math.Formulas)
	assert.Equal(t, []string{"g = 9.8 m/s^2"}, ex.Math.Constants)
	assert.Equal(t, []string{"no lab work required"}, ex.Math.SafetyNotes)
}

func TestLanguageAgentBlanksForceInline(t *testing.T) {
	gw := &cannedGW{body: `{"exercises":[
		{"number":"1","question_text":"She ____ to school yesterday.","input_type":"text_input","start_y":50,"end_y":80}
	]}`}
	payload, err := NewLanguage(gw).Extract(context.Background(), input())
	require.NoError(t, err)

	ex := payload.(analysis.LanguagePayload).Exercises[0]
	assert.Equal(t, analysis.InputInline, ex.InputType)
	require.NotNil(t, ex.InputConfig)
	require.Len(t, ex.InputConfig.Placeholders, 1)
	assert.Equal(t, 4, ex.InputConfig.Placeholders[0].Offset)
	assert.Equal(t, 4, ex.InputConfig.Placeholders[0].Length)
}

func TestLanguageAgentOptionsDefaultToMultipleChoice(t *testing.T) {
	gw := &cannedGW{body: `{"exercises":[
		{"number":"1","question_text":"Pick the correct form.","start_y":50,"end_y":80,
		 "options":[{"label":"a","text":"goes"},{"label":"b","text":"go"}],
		 "target_language":"english","skill_focus":"grammar"}
	]}`}
	payload, err := NewLanguage(gw).Extract(context.Background(), input())
	require.NoError(t, err)

	ex := payload.(analysis.LanguagePayload).Exercises[0]
	assert.Equal(t, analysis.InputMultipleChoice, ex.InputType)
	require.NotNil(t, ex.InputConfig)
	require.Len(t, ex.InputConfig.Options, 2)
	assert.Equal(t, "a", ex.InputConfig.Options[0].Label)
	require.NotNil(t, ex.Language)
	assert.Equal(t, "english", ex.Language.TargetLanguage)
	assert.Equal(t, "grammar", ex.Language.SkillFocus)
}

func TestStudyAgentSummaryAndExercises(t *testing.T) {
	gw := &cannedGW{body: `{
		"summary":{"title":" Fractions ","key_points":[
			{"text":"a/b means a parts of b","importance":"core"},
			{"text":"denominators must match to add","importance":"critical"},
			{"text":"","importance":"core"}
		],"definitions":["numerator","denominator"]},
		"exercises":[{"number":"1","question_text":"Add 1/2 + 1/4","start_y":700,"end_y":800}]
	}`}
	payload, err := NewStudy(gw).Extract(context.Background(), input())
	require.NoError(t, err)

	sp := payload.(analysis.StudyPayload)
	require.NotNil(t, sp.Summary)
	assert.Equal(t, "Fractions", sp.Summary.Title)
	require.Len(t, sp.Summary.KeyPoints, 2)
	assert.Equal(t, "core", sp.Summary.KeyPoints[0].Importance)
	// unknown importance collapses to supporting
	assert.Equal(t, "supporting", sp.Summary.KeyPoints[1].Importance)

	require.Len(t, sp.Exercises, 1)
	require.NotNil(t, sp.Exercises[0].Study)
	assert.Equal(t, "Fractions", sp.Exercises[0].Study.SourceSection)
	assert.Equal(t, analysis.InputTextInput, sp.Exercises[0].InputType)
}

func TestStudyAgentMissingSummaryIsSchemaError(t *testing.T) {
	gw := &cannedGW{body: `{"exercises":[{"number":"1","question_text":"q","start_y":0,"end_y":10}]}`}
	_, err := NewStudy(gw).Extract(context.Background(), input())

	var serr *analysis.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, analysis.AgentStudy, serr.Agent)
}

func TestGenericAgentEmptyListIsSchemaError(t *testing.T) {
	gw := &cannedGW{body: `{"exercises":[]}`}
	_, err := NewGeneric(gw).Extract(context.Background(), input())

	var serr *analysis.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, analysis.AgentGeneric, serr.Agent)
}

func TestMathAgentAllQuestionTextEmptyIsSchemaError(t *testing.T) {
	gw := &cannedGW{body: `{"exercises":[
		{"number":"1","question_text":"  ","start_y":0,"end_y":10},
		{"number":"2","question_text":"","start_y":20,"end_y":30}
	]}`}
	_, err := NewMathScience(analysis.AgentMath, gw).Extract(context.Background(), input())

	var serr *analysis.SchemaError
	require.ErrorAs(t, err, &serr)
}

func TestGatewayErrorPassesThroughUnwrapped(t *testing.T) {
	gw := &cannedGW{err: &gateway.DecodeError{Model: "m", Raw: "not json"}}
	_, err := NewGeneric(gw).Extract(context.Background(), input())

	var derr *gateway.DecodeError
	require.ErrorAs(t, err, &derr)
}

func TestExerciseNumber(t *testing.T) {
	cases := []struct {
		raw  string
		seq  int
		want string
	}{
		{"1.", 5, "1"},
		{"2a)", 5, "2a"},
		{"IV.1", 5, "IV.1"},
		{"  3 ", 5, "3"},
		{"", 5, "5"},
		{"Exercise number one", 7, "7"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, exerciseNumber(c.raw, c.seq), "raw=%q", c.raw)
	}
}

func TestBlankSpansUsesRuneOffsets(t *testing.T) {
	spans := blankSpans("Вставь ____ слово и ....")
	require.Len(t, spans, 2)
	assert.Equal(t, 7, spans[0].Offset)
	assert.Equal(t, 4, spans[0].Length)
	assert.Equal(t, 20, spans[1].Offset)
	assert.Equal(t, 4, spans[1].Length)
}

func TestRegistryCoversEveryAgent(t *testing.T) {
	reg := NewRegistry(&cannedGW{body: `{}`})
	for _, id := range []analysis.AgentID{
		analysis.AgentMath, analysis.AgentScience, analysis.AgentLang,
		analysis.AgentStudy, analysis.AgentGeneric,
	} {
		a, ok := reg.Get(id)
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, id, a.ID())
	}
}
