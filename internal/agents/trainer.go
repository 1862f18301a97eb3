package agents

import (
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
)

// NewTrainer builds the trainer agent, the workout-side counterpart of the
// nutritionist.
func NewTrainer(db *gorm.DB, client llm.Client, planGen PlanGenerator, temperature float64, maxTokens int) Agent {
	return &specialist{
		DB:       db,
		LLM:      client,
		PlanGen:  planGen,
		agent:    domain.AgentTrainer,
		sibling:  domain.AgentNutritionist,
		planKind: domain.PlanWorkout,
		switchPhrases: []string{
			"switch to nutritionist", "talk to nutritionist", "log meal", "log food",
		},
		systemPrompt: trainerSystemPrompt,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}
}

func trainerSystemPrompt(uc userContext) string {
	return `You are a personal trainer in a fitness coaching service. You discuss the
user's workout plan, exercises, form, progression, and recovery. Respect the
user's conditions or injuries and their stated preferences. Keep answers
short and actionable; this is a chat, not an article.

` + uc.describe()
}
