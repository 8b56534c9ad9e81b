// Package repair fixes common malformed artifacts in raw model output
// before JSON parsing. Pure text transforms, no I/O, never fails: the
// caller is responsible for final validation via parsing.
package repair

import (
	"regexp"
	"strings"
)

// Repair applies, in order: code-fence stripping, trailing-comma removal,
// and backslash escape fixes for LaTeX sequences inside JSON strings.
// Repair(Repair(x)) == Repair(x).
func Repair(raw string) string {
	s := StripCodeFences(raw)
	s = stripTrailingCommas(s)
	s = fixEscapes(s)
	return s
}

func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// stripTrailingCommas removes a comma that directly precedes a closing
// `}` or `]` (ignoring whitespace), outside of string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma, keep the whitespace
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Reversible placeholder protecting already-correct double escapes, so the
// single-escape fixes below cannot be applied twice.
const dblBackslashTok = "\x01DBS\x01"

// Single-backslash sequences that are valid JSON escapes yet common LaTeX
// commands; the generic rule below cannot touch them.
var latexCommandRe = regexp.MustCompile(`\\(begin|end|binom|bar|beta|boldsymbol|frac|nabla|neq|not|rho|right|tfrac|times|text|theta|tanh|tan|underline|underbrace)`)

// A lone backslash followed by anything that is not a legal JSON escape
// character must have been meant as a literal backslash.
var badEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

func fixEscapes(s string) string {
	s = strings.ReplaceAll(s, `\\`, dblBackslashTok)
	s = latexCommandRe.ReplaceAllString(s, `\\$1`)
	s = badEscapeRe.ReplaceAllString(s, `\\$1`)
	s = strings.ReplaceAll(s, dblBackslashTok, `\\`)
	return s
}
