package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
)

// backPhrases send the user from any specialist to the coordination hub.
var backPhrases = []string{"go back", "main menu", "what can i do", "help"}

// greetingPhrases make a specialist reintroduce itself instead of calling
// the model.
var greetingPhrases = []string{"hi", "hello", "hey"}

// specialist is the shared machinery of the nutritionist and trainer
// agents: keyword routing to the sibling specialist or back to the hub,
// plan generation on greeting, and a model-backed free-form conversation
// for everything else.
type specialist struct {
	DB       *gorm.DB
	LLM      llm.Client
	PlanGen  PlanGenerator
	agent    domain.AgentType
	sibling  domain.AgentType
	planKind domain.PlanType
	// switchPhrases route to the sibling specialist.
	switchPhrases []string
	systemPrompt  func(userContext) string

	Temperature float64
	MaxTokens   int
}

func (s *specialist) Type() domain.AgentType { return s.agent }

func (s *specialist) Process(ctx context.Context, userID, message string, history []llm.Message) (Response, error) {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, p := range s.switchPhrases {
		if strings.Contains(lower, p) {
			return Response{
				Transition: &Transition{Target: s.sibling, GetGreeting: true},
			}, nil
		}
	}
	for _, p := range backPhrases {
		if strings.Contains(lower, p) {
			return Response{
				Transition: &Transition{Target: domain.AgentCoordination, GetGreeting: true},
			}, nil
		}
	}
	for _, p := range greetingPhrases {
		if lower == p || lower == p+"!" {
			return s.Greeting(ctx, userID, TransitionContext{})
		}
	}

	uc, err := loadUserContext(ctx, s.DB, userID)
	if err != nil {
		return Response{}, err
	}
	req := llm.Request{
		SystemPrompt: s.systemPrompt(uc),
		Messages:     append(history, llm.Message{Role: domain.RoleUser, Content: message}),
		Temperature:  s.Temperature,
		MaxTokens:    s.MaxTokens,
	}
	text, err := s.LLM.Invoke(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("agent", s.agent.String()).
			Msg("specialist model call failed")
		return Response{Content: s.fallbackText()}, nil
	}
	return Response{Content: text}, nil
}

func (s *specialist) Greeting(ctx context.Context, userID string, tc TransitionContext) (Response, error) {
	if tc.GeneratePlan {
		return s.greetWithPlan(ctx, userID)
	}

	uc, err := loadUserContext(ctx, s.DB, userID)
	if err != nil {
		return Response{}, err
	}
	req := llm.Request{
		SystemPrompt: s.systemPrompt(uc),
		Messages: []llm.Message{{
			Role:    domain.RoleUser,
			Content: "Introduce yourself in one or two sentences and say what you can help with.",
		}},
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}
	text, err := s.LLM.Invoke(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("agent", s.agent.String()).
			Msg("specialist greeting failed")
		text = s.fallbackText()
	}
	return Response{Content: text}, nil
}

// greetWithPlan generates (or reuses) the specialist's plan and presents it
// as the opening message. A generation failure degrades to an apology
// rather than an error so the transition itself still lands.
func (s *specialist) greetWithPlan(ctx context.Context, userID string) (Response, error) {
	plan, err := s.PlanGen.Generate(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("agent", s.agent.String()).
			Msg("plan generation failed during greeting")
		return Response{
			Content: fmt.Sprintf("I had trouble creating your %s plan. Let's try again in a moment, "+
				"or ask me anything in the meantime.", s.planKindLabel()),
		}, nil
	}

	md := Metadata{PlanID: plan.ID}
	if s.planKind == domain.PlanMeal {
		md.MealPlanGenerated = true
	} else {
		md.WorkoutPlanGenerated = true
	}
	return Response{
		Content: fmt.Sprintf("Here's your %s: %q, covering the next %d days. "+
			"Want me to walk you through it, or adjust anything?",
			s.planKindLabel()+" plan", plan.Name, plan.DurationDays),
		Metadata: md,
	}, nil
}

func (s *specialist) planKindLabel() string {
	if s.planKind == domain.PlanMeal {
		return "meal"
	}
	return "workout"
}

func (s *specialist) fallbackText() string {
	if s.planKind == domain.PlanMeal {
		return "I'm your nutritionist. I can build a meal plan, tweak the one you have, or log what you ate."
	}
	return "I'm your trainer. I can build a workout plan, tweak the one you have, or log your training."
}
