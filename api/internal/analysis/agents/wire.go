package agents

// Wire shapes for the model's structured output. Vertical positions come
// back as integers in 0..1000 page space (see the schemas in the prompt
// package); normalization into [0,1] fragment space happens here and
// nowhere else.

type wireExercise struct {
	Number           string            `json:"number"`
	QuestionText     string            `json:"question_text"`
	QuestionLatex    string            `json:"question_latex"`
	Topic            string            `json:"topic"`
	Difficulty       string            `json:"difficulty"`
	EstimatedMinutes int               `json:"estimated_minutes"`
	InputType        string            `json:"input_type"`
	StartY           int               `json:"start_y"`
	EndY             int               `json:"end_y"`
	RelatedConcepts  []string          `json:"related_concepts"`
	SolutionSteps    []string          `json:"solution_steps"`
	Options          []wireOption      `json:"options"`
	Placeholders     []wirePlaceholder `json:"placeholders"`
	MinWords         int               `json:"min_words"`
	MaxWords         int               `json:"max_words"`
	CanvasKind       string            `json:"canvas_kind"`
	Formulas         []string          `json:"formulas"`
	Constants        []string          `json:"constants"`
	SafetyNotes      []string          `json:"safety_notes"`
	TargetLanguage   string            `json:"target_language"`
	SkillFocus       string            `json:"skill_focus"`
}

type wireOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type wirePlaceholder struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Label  string `json:"label"`
}

type wireExerciseList struct {
	Exercises []wireExercise `json:"exercises"`
}

type wireKeyPoint struct {
	Text       string `json:"text"`
	Importance string `json:"importance"`
}

type wireSummary struct {
	Title       string         `json:"title"`
	KeyPoints   []wireKeyPoint `json:"key_points"`
	Theorems    []string       `json:"theorems"`
	Definitions []string       `json:"definitions"`
}

type wireStudy struct {
	Summary   *wireSummary   `json:"summary"`
	Exercises []wireExercise `json:"exercises"`
}
