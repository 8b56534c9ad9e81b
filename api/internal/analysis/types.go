// Package analysis holds the canonical request-scoped model of a scanned
// homework page: OCR fragments in, routed agent payloads normalized into
// one exercise list out. All values are created once per request and never
// mutated afterwards.
package analysis

import "time"

// OCRFragment is one recognized line/block with its normalized vertical
// position on the source page (0.0 top .. 1.0 bottom).
type OCRFragment struct {
	Text   string  `json:"text"`
	StartY float64 `json:"startY"`
	EndY   float64 `json:"endY"`
}

type ContentType string

const (
	ContentStudyMaterial ContentType = "study_material"
	ContentExercises     ContentType = "exercises"
	ContentHybrid        ContentType = "hybrid"
)

type GradeLevel string

const (
	GradeElementary GradeLevel = "elementary"
	GradeMiddle     GradeLevel = "middle"
	GradeHigh       GradeLevel = "high"
	GradeUnknown    GradeLevel = "unknown"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// InputType is the recommended UI affordance for answering an exercise.
type InputType string

const (
	InputCanvas         InputType = "canvas"
	InputTextInput      InputType = "text_input"
	InputTextArea       InputType = "text_area"
	InputInline         InputType = "inline"
	InputMultipleChoice InputType = "multiple_choice"
	InputNone           InputType = "none"
)

func (t InputType) Valid() bool {
	switch t {
	case InputCanvas, InputTextInput, InputTextArea, InputInline, InputMultipleChoice, InputNone:
		return true
	}
	return false
}

// AgentID enumerates every extraction agent the router may select.
type AgentID string

const (
	AgentMath    AgentID = "math_exercise_agent"
	AgentScience AgentID = "science_exercise_agent"
	AgentLang    AgentID = "language_exercise_agent"
	AgentStudy   AgentID = "study_material_agent"
	AgentGeneric AgentID = "generic_exercise_agent"
)

// RoutingDecision is produced once per request by the router.
// Confidence is advisory only and never gates dispatch.
type RoutingDecision struct {
	Subject     string      `json:"subject"`
	ContentType ContentType `json:"contentType"`
	GradeLevel  GradeLevel  `json:"gradeLevel"`
	Confidence  float64     `json:"confidence"`
	AgentID     AgentID     `json:"agentId"`
}

// Span is a vertical extent in normalized [0,1] page space.
type Span struct {
	StartY float64 `json:"startY"`
	EndY   float64 `json:"endY"`
}

// Clamp establishes the invariant 0 <= StartY <= EndY <= 1.
func (s Span) Clamp() Span {
	if s.StartY > s.EndY {
		s.StartY, s.EndY = s.EndY, s.StartY
	}
	s.StartY = clamp01(s.StartY)
	s.EndY = clamp01(s.EndY)
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Placeholder is a blank to fill inside a sentence, as character offsets
// into QuestionText.
type Placeholder struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Label  string `json:"label,omitempty"`
}

type ChoiceOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type WordBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// InputConfig describes the UI affordance for one InputType. Exactly one
// variant is populated.
type InputConfig struct {
	Placeholders []Placeholder  `json:"placeholders,omitempty"` // inline
	Options      []ChoiceOption `json:"options,omitempty"`      // multiple_choice
	CanvasKind   string         `json:"canvasKind,omitempty"`   // canvas: "freeform" | "grid" | "graph"
	WordCount    *WordBounds    `json:"wordCount,omitempty"`    // text_area
	MaxChars     int            `json:"maxChars,omitempty"`     // text_input
}

// Subject-specific exercise details; one-of, attached to Exercise.

type MathDetails struct {
	Formulas  []string `json:"formulas,omitempty"`
	Constants []string `json:"constants,omitempty"`
	// Science pages reuse the math agent; lab-safety callouts land here.
	SafetyNotes []string `json:"safetyNotes,omitempty"`
}

type LanguageDetails struct {
	TargetLanguage string `json:"targetLanguage,omitempty"`
	SkillFocus     string `json:"skillFocus,omitempty"` // "grammar" | "vocabulary" | "reading" | "writing"
}

type StudyDetails struct {
	SourceSection string `json:"sourceSection,omitempty"`
}

// Exercise is the canonical unit every agent payload is normalized into.
// Immutable after creation: agents regenerate, never patch.
type Exercise struct {
	Number           string           `json:"number"`
	QuestionText     string           `json:"questionText"`
	QuestionLatex    string           `json:"questionLatex,omitempty"`
	Topic            string           `json:"topic"`
	Difficulty       Difficulty       `json:"difficulty,omitempty"`
	EstimatedMinutes int              `json:"estimatedMinutes,omitempty"`
	InputType        InputType        `json:"inputType"`
	InputConfig      *InputConfig     `json:"inputConfig,omitempty"`
	Position         Span             `json:"position"`
	RelatedConcepts  []string         `json:"relatedConcepts,omitempty"`
	SolutionSteps    []string         `json:"solutionSteps,omitempty"`
	Math             *MathDetails     `json:"math,omitempty"`
	Language         *LanguageDetails `json:"language,omitempty"`
	Study            *StudyDetails    `json:"study,omitempty"`
}

type KeyPoint struct {
	Text       string `json:"text"`
	Importance string `json:"importance"` // "core" | "supporting" | "extra"
}

type StudyMaterialSummary struct {
	Title       string     `json:"title"`
	KeyPoints   []KeyPoint `json:"keyPoints,omitempty"`
	Theorems    []string   `json:"theorems,omitempty"`
	Definitions []string   `json:"definitions,omitempty"`
}

// AgentPayload is the sum of per-agent output shapes. The aggregator
// consumes it through one normalization function per variant.
type AgentPayload interface {
	payloadKind() string
}

type MathPayload struct {
	Exercises []Exercise
}

func (MathPayload) payloadKind() string { return "math" }

type LanguagePayload struct {
	Exercises []Exercise
}

func (LanguagePayload) payloadKind() string { return "language" }

type StudyPayload struct {
	Summary   *StudyMaterialSummary
	Exercises []Exercise
}

func (StudyPayload) payloadKind() string { return "study_material" }

type GenericPayload struct {
	Exercises []Exercise
}

func (GenericPayload) payloadKind() string { return "generic" }

// Analysis is the normalized result body.
type Analysis struct {
	Exercises     []Exercise            `json:"exercises"`
	LessonSummary *StudyMaterialSummary `json:"lessonSummary,omitempty"`
}

type Metadata struct {
	RequestID         string            `json:"requestId"`
	ProcessingTimeMs  int64             `json:"processingTimeMs"`
	AgentsInvoked     []string          `json:"agentsInvoked"`
	ModelVersions     map[string]string `json:"modelVersions"`
	Timestamp         time.Time         `json:"timestamp"`
	ExcludedExercises int               `json:"excludedExercises"`
	Warnings          []string          `json:"warnings,omitempty"`
}

// AnalysisEnvelope is the response unit, assembled once per request.
type AnalysisEnvelope struct {
	Routing  RoutingDecision `json:"routing"`
	Analysis Analysis        `json:"analysis"`
	Metadata Metadata        `json:"metadata"`
}

// Preferences are optional caller hints passed through to the agents.
type Preferences struct {
	DetailLevel          string `json:"detailLevel,omitempty"` // "brief" | "standard" | "detailed"
	IncludeExtraPractice bool   `json:"includeExtraPractice,omitempty"`
	PreferredLanguage    string `json:"preferredLanguage,omitempty"`
}
