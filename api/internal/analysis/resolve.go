package analysis

import "strings"

// ResolveAgent maps a model-emitted subject string and content type to
// exactly one known agent. Any study_material page goes to the study
// agent regardless of subject; unknown subjects fall back to the generic
// agent instead of failing the request.
func ResolveAgent(subject string, contentType ContentType) AgentID {
	if contentType == ContentStudyMaterial {
		return AgentStudy
	}
	s := strings.ToLower(strings.TrimSpace(subject))
	switch {
	case hasAnyPrefix(s, "math", "algebra", "geometry", "calculus", "arithmetic"):
		return AgentMath
	case hasAnyPrefix(s, "science", "physics", "chemistry", "biology"):
		return AgentScience
	case hasAnyPrefix(s, "language", "english", "spanish", "french", "german", "grammar", "literature", "reading", "writing"):
		return AgentLang
	case hasAnyPrefix(s, "study", "lesson"):
		return AgentStudy
	default:
		return AgentGeneric
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
