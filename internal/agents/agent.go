// Package agents implements the conversational agents behind the chat
// endpoint: onboarding, coordination, nutritionist, and trainer. Each agent
// produces a reply plus optional transition request; the orchestrator in
// services owns the transition loop and all persistence of conversation
// state, so agents here never write the conversation's agent type
// themselves.
package agents

import (
	"context"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
)

// Metadata is the structured annotation an agent attaches to a reply. The
// orchestrator merges metadata across a transition chain; later (greeting)
// values win field by field.
type Metadata struct {
	AgentType            domain.AgentType `json:"agent_type,omitempty"`
	PlanID               string           `json:"plan_id,omitempty"`
	MealPlanGenerated    bool             `json:"meal_plan_generated,omitempty"`
	WorkoutPlanGenerated bool             `json:"workout_plan_generated,omitempty"`
	ProfileUpdated       bool             `json:"profile_updated,omitempty"`
	OnboardingComplete   bool             `json:"onboarding_complete,omitempty"`
	LogSaved             bool             `json:"log_saved,omitempty"`
	LogID                string           `json:"log_id,omitempty"`
}

// Merge overlays o onto m: o's non-zero fields take precedence.
func (m Metadata) Merge(o Metadata) Metadata {
	out := m
	if o.AgentType != "" {
		out.AgentType = o.AgentType
	}
	if o.PlanID != "" {
		out.PlanID = o.PlanID
	}
	if o.MealPlanGenerated {
		out.MealPlanGenerated = true
	}
	if o.WorkoutPlanGenerated {
		out.WorkoutPlanGenerated = true
	}
	if o.ProfileUpdated {
		out.ProfileUpdated = true
	}
	if o.OnboardingComplete {
		out.OnboardingComplete = true
	}
	if o.LogSaved {
		out.LogSaved = true
	}
	if o.LogID != "" {
		out.LogID = o.LogID
	}
	return out
}

// TransitionContext carries hints from the agent that requested a
// transition to the agent being greeted.
type TransitionContext struct {
	// GeneratePlan asks the target specialist to generate its plan as part
	// of the greeting.
	GeneratePlan bool
}

// Transition is an agent's request to hand the conversation to another
// agent. Agents only request; the orchestrator applies.
type Transition struct {
	Target      domain.AgentType
	GetGreeting bool
	Context     TransitionContext
}

// Response is what an agent returns for one turn.
type Response struct {
	Content    string
	Metadata   Metadata
	Transition *Transition
}

// Agent is one conversational specialist.
type Agent interface {
	// Type identifies the agent in the conversation state machine.
	Type() domain.AgentType

	// Process handles one user message given the prior history (oldest
	// first, already windowed by the orchestrator).
	Process(ctx context.Context, userID, message string, history []llm.Message) (Response, error)

	// Greeting produces the agent's opening message after a transition.
	Greeting(ctx context.Context, userID string, tc TransitionContext) (Response, error)
}

// PlanGenerator creates (or reuses) a plan for a user. Implemented by the
// plan services; injected into the specialists so agents stay free of plan
// persistence details.
type PlanGenerator interface {
	Generate(ctx context.Context, userID string) (*domain.Plan, error)
}

// Router resolves the agent that owns a conversation state. Unknown or
// not-yet-routable states resolve to coordination so a stale or future
// agent_type value never strands a conversation.
type Router struct {
	agents map[domain.AgentType]Agent
}

// NewRouter builds a router over the given agents. The coordination agent
// must be among them.
func NewRouter(list ...Agent) *Router {
	m := make(map[domain.AgentType]Agent, len(list))
	for _, a := range list {
		m[a.Type()] = a
	}
	return &Router{agents: m}
}

// Get returns the agent for t, falling back to coordination.
func (r *Router) Get(t domain.AgentType) Agent {
	if a, ok := r.agents[t]; ok {
		return a
	}
	return r.agents[domain.AgentCoordination]
}

// Window returns the most recent n entries of history, preserving order.
func Window(history []llm.Message, n int) []llm.Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
