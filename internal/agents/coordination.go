package agents

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
)

const coordinationFallback = "I'm here to help! Would you like to generate a meal plan or workout plan?"

// Intent actions the coordination model can pick.
const (
	actionGenerateMealPlan    = "generate_meal_plan"
	actionGenerateWorkoutPlan = "generate_workout_plan"
	actionRouteToNutritionist = "route_to_nutritionist"
	actionRouteToTrainer      = "route_to_trainer"
	actionNone                = "none"
)

// Coordination is the hub agent. It answers general questions, classifies
// the user's intent, and hands the conversation to a specialist when the
// user wants a plan or domain help.
type Coordination struct {
	DB  *gorm.DB
	LLM llm.Client

	Temperature float64
	MaxTokens   int
}

type coordinationReply struct {
	Response       string `json:"response"`
	SuggestedAgent string `json:"suggested_agent,omitempty"`
	Action         string `json:"action"`
}

// Type implements Agent.
func (a *Coordination) Type() domain.AgentType { return domain.AgentCoordination }

// Process implements Agent.
func (a *Coordination) Process(ctx context.Context, userID, message string, history []llm.Message) (Response, error) {
	uc, err := loadUserContext(ctx, a.DB, userID)
	if err != nil {
		return Response{}, err
	}

	req := llm.Request{
		SystemPrompt: coordinationSystemPrompt(uc),
		Messages:     append(history, llm.Message{Role: domain.RoleUser, Content: message}),
		Temperature:  a.Temperature,
		MaxTokens:    a.MaxTokens,
	}
	reply, err := llm.GenerateStructured[coordinationReply](ctx, a.LLM, req)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("coordination model call failed")
		return Response{Content: coordinationFallback}, nil
	}

	switch reply.Action {
	case actionGenerateMealPlan:
		return Response{
			Content: "Let me connect you with our nutritionist to create your meal plan...",
			Transition: &Transition{
				Target:      domain.AgentNutritionist,
				GetGreeting: true,
				Context:     TransitionContext{GeneratePlan: true},
			},
		}, nil
	case actionGenerateWorkoutPlan:
		return Response{
			Content: "Let me connect you with our trainer to create your workout plan...",
			Transition: &Transition{
				Target:      domain.AgentTrainer,
				GetGreeting: true,
				Context:     TransitionContext{GeneratePlan: true},
			},
		}, nil
	case actionRouteToNutritionist:
		return Response{
			Transition: &Transition{Target: domain.AgentNutritionist, GetGreeting: true},
		}, nil
	case actionRouteToTrainer:
		return Response{
			Transition: &Transition{Target: domain.AgentTrainer, GetGreeting: true},
		}, nil
	}
	return Response{Content: reply.Response}, nil
}

// Greeting implements Agent. Runs right after onboarding completes or when
// a specialist sends the user back to the hub.
func (a *Coordination) Greeting(ctx context.Context, userID string, _ TransitionContext) (Response, error) {
	uc, err := loadUserContext(ctx, a.DB, userID)
	if err != nil {
		return Response{}, err
	}

	req := llm.Request{
		SystemPrompt: coordinationSystemPrompt(uc),
		Messages: []llm.Message{{
			Role: domain.RoleUser,
			Content: "Greet the user briefly and offer the next step " +
				"(meal plan, workout plan, or logging what they ate or trained).",
		}},
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
	}
	text, err := a.LLM.Invoke(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("coordination greeting failed")
		text = coordinationFallback
	}
	return Response{Content: text}, nil
}

func coordinationSystemPrompt(uc userContext) string {
	return `You are the coordinator of a fitness and nutrition coaching service.
You answer general questions and figure out what the user wants next.

Pick exactly one action:
- "generate_meal_plan" when the user wants a meal or diet plan created
- "generate_workout_plan" when the user wants a workout or training plan created
- "route_to_nutritionist" when they want to discuss food or log meals
- "route_to_trainer" when they want to discuss training or log workouts
- "none" for anything you can answer yourself; put the answer in response

Keep responses short and practical.

` + uc.describe()
}
