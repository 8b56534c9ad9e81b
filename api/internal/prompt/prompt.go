// Package prompt holds the fixed system instructions and response
// schemas for every model call. Wire schemas use integer 0-1000 vertical
// positions; the agents reconcile those into [0,1] fragment space.
package prompt

const RouteSystem = `You are the routing module of a homework page analyzer.
You receive a photo/scan of one homework page plus the OCR text blocks with their vertical positions.
Classify the page: school subject, whether it is study material, exercises or a hybrid, and the grade band.
Do NOT solve anything. Do NOT extract exercises. Output only the classification JSON.`

const RouteSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["subject", "content_type", "grade_level", "confidence"],
  "properties": {
    "subject": { "type": "string", "description": "e.g. mathematics, science-physics, language-english" },
    "content_type": { "type": "string", "enum": ["study_material", "exercises", "hybrid"] },
    "grade_level": { "type": "string", "enum": ["elementary", "middle", "high", "unknown"] },
    "confidence": { "type": "number", "minimum": 0, "maximum": 1 }
  }
}`

const MathSystem = `You are the math/science extraction module of a homework page analyzer.
Split the page into individual exercises. For each exercise keep the original numbering ("3", "2a", "IV.1").
Transcribe the question text verbatim; put formulas additionally as LaTeX into question_latex.
Positions: start_y/end_y are integers 0..1000 measuring the vertical extent of the exercise on the page (0 top, 1000 bottom); align them with the OCR block positions given in the user prompt.
input_type: prefer "canvas" whenever working steps must be shown or the answer is a calculation; use "multiple_choice" only when lettered options are printed.
When formulas, physical constants or lab-safety instructions are referenced, list them.
Do NOT solve the exercises. solution_steps is a plan of method hints, never the answer.`

const ScienceSystem = MathSystem

const LanguageSystem = `You are the language extraction module of a homework page analyzer.
Split the page into individual exercises, keeping original numbering ("3", "2a").
Transcribe the question text verbatim, including blank markers such as "____" exactly as printed.
input_type rules, in priority order:
1. "inline" when the sentence contains blanks to fill (underscores or gap placeholders); also report each blank in placeholders with its character offset into question_text.
2. "multiple_choice" when lettered/numbered options are printed; list them in options.
3. "text_input" for single-word or short-phrase answers.
4. "text_area" for essay-length responses; give min/max word bounds if stated.
Positions: start_y/end_y are integers 0..1000 (0 top, 1000 bottom), aligned with the OCR blocks.
Do NOT solve the exercises.`

const StudySystem = `You are the study-material module of a homework page analyzer.
The page is lesson content (possibly with embedded practice exercises).
Produce a lesson summary: a title, the key points each tagged core/supporting/extra, and any highlighted theorems and definitions verbatim.
If practice exercises are present, extract them too with original numbering and 0..1000 start_y/end_y positions.
Do NOT solve exercises and do not invent content that is not on the page.`

const GenericSystem = `You are the fallback extraction module of a homework page analyzer.
The subject of the page could not be determined. Split the page into individual exercises with their original numbering, verbatim question text, a short topic label and 0..1000 start_y/end_y positions aligned with the OCR blocks.
Choose input_type conservatively: "inline" for fill-in blanks, "multiple_choice" for printed options, otherwise "text_input".
Do NOT solve the exercises.`

// exerciseSchemaCore is shared by every exercise-extracting schema.
const exerciseSchemaCore = `{
      "type": "object",
      "required": ["number", "question_text", "topic", "input_type", "start_y", "end_y"],
      "properties": {
        "number": { "type": "string" },
        "question_text": { "type": "string" },
        "question_latex": { "type": "string" },
        "topic": { "type": "string" },
        "difficulty": { "type": "string", "enum": ["easy", "medium", "hard"] },
        "estimated_minutes": { "type": "integer", "minimum": 0 },
        "input_type": { "type": "string", "enum": ["canvas", "text_input", "text_area", "inline", "multiple_choice", "none"] },
        "start_y": { "type": "integer", "minimum": 0, "maximum": 1000 },
        "end_y": { "type": "integer", "minimum": 0, "maximum": 1000 },
        "related_concepts": { "type": "array", "items": { "type": "string" } },
        "solution_steps": { "type": "array", "items": { "type": "string" } },
        "options": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["label", "text"],
            "properties": { "label": { "type": "string" }, "text": { "type": "string" } }
          }
        },
        "placeholders": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["offset", "length"],
            "properties": {
              "offset": { "type": "integer", "minimum": 0 },
              "length": { "type": "integer", "minimum": 1 },
              "label": { "type": "string" }
            }
          }
        },
        "min_words": { "type": "integer", "minimum": 0 },
        "max_words": { "type": "integer", "minimum": 0 },
        "canvas_kind": { "type": "string", "enum": ["freeform", "grid", "graph"] },
        "formulas": { "type": "array", "items": { "type": "string" } },
        "constants": { "type": "array", "items": { "type": "string" } },
        "safety_notes": { "type": "array", "items": { "type": "string" } },
        "target_language": { "type": "string" },
        "skill_focus": { "type": "string", "enum": ["grammar", "vocabulary", "reading", "writing"] }
      }
    }`

const MathSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["exercises"],
  "properties": {
    "exercises": { "type": "array", "items": ` + exerciseSchemaCore + ` }
  }
}`

const ScienceSchema = MathSchema

const LanguageSchema = MathSchema

const GenericSchema = MathSchema

const StudySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["summary"],
  "properties": {
    "summary": {
      "type": "object",
      "required": ["title", "key_points"],
      "properties": {
        "title": { "type": "string" },
        "key_points": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["text", "importance"],
            "properties": {
              "text": { "type": "string" },
              "importance": { "type": "string", "enum": ["core", "supporting", "extra"] }
            }
          }
        },
        "theorems": { "type": "array", "items": { "type": "string" } },
        "definitions": { "type": "array", "items": { "type": "string" } }
      }
    },
    "exercises": { "type": "array", "items": ` + exerciseSchemaCore + ` }
  }
}`
