package analysis

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"page-analyzer/api/internal/gateway"
)

// Request is one page to analyze, already validated and decoded by the
// transport layer.
type Request struct {
	Image     []byte
	MIME      string
	Fragments []OCRFragment
	Prefs     Preferences
}

// Service runs the sequential per-request pipeline:
// Router -> selected Agent -> Aggregator. No state is shared between
// requests; retries live inside the gateway.
type Service struct {
	router *Router
	agents Registry
	model  string
}

func NewService(router *Router, agents Registry, model string) *Service {
	return &Service{router: router, agents: agents, model: model}
}

func (s *Service) Analyze(ctx context.Context, req Request) (AnalysisEnvelope, error) {
	started := time.Now()
	requestID := uuid.NewString()

	routing, err := s.router.Classify(ctx, req.Image, req.MIME, req.Fragments)
	if err != nil {
		return AnalysisEnvelope{}, err
	}
	log.Printf("analyze [%s]: routed subject=%q content=%s grade=%s agent=%s conf=%.2f",
		requestID, routing.Subject, routing.ContentType, routing.GradeLevel, routing.AgentID, routing.Confidence)

	in := Input{
		Image:     req.Image,
		MIME:      req.MIME,
		Fragments: req.Fragments,
		Routing:   routing,
		Prefs:     req.Prefs,
	}

	agent, ok := s.agents.Get(routing.AgentID)
	if !ok {
		agent = s.agents[AgentGeneric]
	}

	invoked := []string{string(agent.ID())}
	payload, err := agent.Extract(ctx, in)
	if err != nil && agent.ID() != AgentGeneric && isContentFailure(err) {
		// The transport worked but the payload was unusable; one
		// fallback pass through the generic agent instead of failing
		// the request.
		log.Printf("analyze [%s]: %s failed (%v); falling back to %s", requestID, agent.ID(), err, AgentGeneric)
		generic := s.agents[AgentGeneric]
		payload, err = generic.Extract(ctx, in)
		invoked = append(invoked, string(AgentGeneric))
	}
	if err != nil {
		return AnalysisEnvelope{}, err
	}

	versions := map[string]string{"router": s.model}
	for _, id := range invoked {
		versions[id] = s.model
	}

	env := Assemble(routing, payload, AssembleInfo{
		RequestID:     requestID,
		AgentsInvoked: invoked,
		ModelVersions: versions,
		Started:       started,
	})
	log.Printf("analyze [%s]: %d exercises, %d excluded, %dms",
		requestID, len(env.Analysis.Exercises), env.Metadata.ExcludedExercises, env.Metadata.ProcessingTimeMs)
	return env, nil
}

// isContentFailure separates payload problems (worth a generic-agent
// fallback) from transport problems (already retried by the gateway).
func isContentFailure(err error) bool {
	var serr *SchemaError
	var derr *gateway.DecodeError
	return errors.As(err, &serr) || errors.As(err, &derr)
}
