package analysis

import (
	"context"
	"fmt"
	"strings"
)

// Input is everything an extraction agent gets to work with for one page.
type Input struct {
	Image     []byte
	MIME      string
	Fragments []OCRFragment
	Routing   RoutingDecision
	Prefs     Preferences
}

// Agent is one subject-bound extraction routine wrapping one structured
// model call.
type Agent interface {
	ID() AgentID
	Extract(ctx context.Context, in Input) (AgentPayload, error)
}

// Registry maps every AgentID to an instance; built once in main.
type Registry map[AgentID]Agent

func (r Registry) Get(id AgentID) (Agent, bool) {
	a, ok := r[id]
	return a, ok
}

// RenderFragments lays OCR blocks out the way every prompt expects:
// "[Block i] Y: start-end | text".
func RenderFragments(frs []OCRFragment) string {
	var b strings.Builder
	for i, f := range frs {
		fmt.Fprintf(&b, "[Block %d] Y: %.2f-%.2f | %s\n", i+1, f.StartY, f.EndY, f.Text)
	}
	return b.String()
}

// SchemaError reports a structurally valid model payload that is
// semantically unusable (e.g. no exercises, or every exercise missing its
// question text). Not retried over the network; the service may fall back
// to the generic agent instead.
type SchemaError struct {
	Agent   AgentID
	Reasons []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: payload failed schema checks: %s", e.Agent, strings.Join(e.Reasons, "; "))
}
