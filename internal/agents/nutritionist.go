package agents

import (
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
)

// NewNutritionist builds the nutritionist agent. It owns meal plans and
// meal conversations; the familiar "switch to trainer" and workout-logging
// phrases hand the conversation to the trainer without a model call.
func NewNutritionist(db *gorm.DB, client llm.Client, planGen PlanGenerator, temperature float64, maxTokens int) Agent {
	return &specialist{
		DB:       db,
		LLM:      client,
		PlanGen:  planGen,
		agent:    domain.AgentNutritionist,
		sibling:  domain.AgentTrainer,
		planKind: domain.PlanMeal,
		switchPhrases: []string{
			"switch to trainer", "talk to trainer", "log workout", "log exercise",
		},
		systemPrompt: nutritionistSystemPrompt,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}
}

func nutritionistSystemPrompt(uc userContext) string {
	return `You are a registered-dietitian-style nutritionist in a fitness coaching
service. You discuss the user's meal plan, food choices, portions, macros,
and eating habits. Give concrete, realistic advice that fits the user's
preferences, conditions, budget, and cooking time. Keep answers short and
actionable; this is a chat, not an article.

` + uc.describe()
}
