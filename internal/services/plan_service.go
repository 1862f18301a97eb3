// Package services – PlanService
//
// This file implements plan generation for both plan types. Generation
// reuses an existing active plan rather than stacking new ones, asks the
// model for a structured payload built from the user's profile and goals,
// and falls back to a sensible canned plan when the model is unavailable so
// the conversational flow never dead-ends.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
	"github.com/fitnesse/go-fitness-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultPlanDays is the plan horizon when the caller does not override it.
const defaultPlanDays = 30

// PlanService generates and serves plans of one type. Wire one instance for
// meal plans and one for workout plans.
type PlanService struct {
	DB   *gorm.DB
	LLM  llm.Client
	Kind domain.PlanType

	// DurationDays overrides the default 30-day horizon when > 0.
	DurationDays int
}

type mealPlanPayload struct {
	DailyCalories int            `json:"daily_calories"`
	Macros        map[string]int `json:"macros"` // protein_g, carbs_g, fat_g
	MealsPerDay   int            `json:"meals_per_day"`
	SampleDays    []sampleDay    `json:"sample_days"`
	Guidelines    []string       `json:"guidelines"`
}

type sampleDay struct {
	Label string   `json:"label"`
	Meals []string `json:"meals"`
}

type workoutPlanPayload struct {
	DaysPerWeek int          `json:"days_per_week"`
	Focus       string       `json:"focus"`
	Sessions    []sessionDay `json:"sessions"`
	Guidelines  []string     `json:"guidelines"`
}

type sessionDay struct {
	Label     string   `json:"label"`
	Exercises []string `json:"exercises"`
}

// Generate returns the user's active plan of this service's type, creating
// one when none exists. Implements agents.PlanGenerator.
func (s *PlanService) Generate(ctx context.Context, userID string) (*domain.Plan, error) {
	tr := otel.Tracer("services/PlanService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("plan.type", string(s.Kind)),
		),
	)
	defer span.End()

	if existing, err := repo.GetActivePlan(ctx, s.DB, userID, s.Kind); err == nil {
		span.SetAttributes(attribute.Bool("plan.reused", true))
		return existing, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	data := s.generateData(ctx, userID)

	days := s.DurationDays
	if days <= 0 {
		days = defaultPlanDays
	}
	start := time.Now().UTC().Truncate(24 * time.Hour)
	plan := &domain.Plan{
		UserID:       userID,
		PlanType:     s.Kind,
		Name:         planName(start),
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, days),
		DurationDays: days,
		PlanData:     data,
	}
	if err := repo.CreatePlan(ctx, s.DB, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdatePlanData replaces a plan's payload with a manually adjusted one and
// returns the refreshed plan. Ownership is enforced by the repository query.
func (s *PlanService) UpdatePlanData(ctx context.Context, userID, planID string, data domain.JSONMap) (*domain.Plan, error) {
	tr := otel.Tracer("services/PlanService")
	ctx, span := tr.Start(ctx, "UpdatePlanData",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("plan.id", planID),
		),
	)
	defer span.End()

	if len(data) == 0 {
		return nil, ErrEmptyPlanData
	}
	if err := repo.UpdatePlanData(ctx, s.DB, planID, userID, data); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return s.GetPlan(ctx, userID, planID)
}

// GetPlan fetches a plan by id, enforcing ownership.
func (s *PlanService) GetPlan(ctx context.Context, userID, planID string) (*domain.Plan, error) {
	p, err := repo.GetPlan(ctx, s.DB, planID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

// generateData asks the model for a plan payload; on any failure it returns
// the canned default so callers always get a usable plan.
func (s *PlanService) generateData(ctx context.Context, userID string) domain.JSONMap {
	uc, err := loadPlanContext(ctx, s.DB, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("plan context load failed, using defaults")
		return s.fallbackData()
	}

	req := llm.Request{
		SystemPrompt: s.planPrompt(uc),
		Messages: []llm.Message{{
			Role:    domain.RoleUser,
			Content: "Generate the plan now.",
		}},
		Temperature: 0.4,
		MaxTokens:   2048,
	}

	var data domain.JSONMap
	if s.Kind == domain.PlanMeal {
		payload, err := llm.GenerateStructured[mealPlanPayload](ctx, s.LLM, req)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("meal plan generation failed, using defaults")
			return s.fallbackData()
		}
		data = toJSONMap(payload)
	} else {
		payload, err := llm.GenerateStructured[workoutPlanPayload](ctx, s.LLM, req)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("workout plan generation failed, using defaults")
			return s.fallbackData()
		}
		data = toJSONMap(payload)
	}
	return data
}

func (s *PlanService) planPrompt(profileText string) string {
	if s.Kind == domain.PlanMeal {
		return `You are a nutritionist creating a practical meal plan. Base calories and
macros on the profile below, respect dietary preferences, conditions, budget,
and cooking time, and keep meals realistic for a home cook.

` + profileText
	}
	return `You are a personal trainer creating a practical workout plan. Base volume
and intensity on the profile below, respect conditions or injuries and
workout preferences, and favor steady progression over novelty.

` + profileText
}

func (s *PlanService) fallbackData() domain.JSONMap {
	if s.Kind == domain.PlanMeal {
		return domain.JSONMap{
			"daily_calories": 2000,
			"macros":         map[string]any{"protein_g": 150, "carbs_g": 200, "fat_g": 65},
			"meals_per_day":  3,
			"guidelines": []any{
				"Prioritize whole foods and lean protein at every meal.",
				"Drink water with each meal; keep sugary drinks occasional.",
			},
		}
	}
	return domain.JSONMap{
		"days_per_week": 3,
		"focus":         "full body strength with light cardio",
		"guidelines": []any{
			"Warm up for five to ten minutes before every session.",
			"Stop any exercise that causes sharp pain.",
		},
	}
}

// planName renders e.g. "March 2026 Plan" for the plan's start month.
func planName(start time.Time) string {
	month := cases.Title(language.English).String(strings.ToLower(start.Format("January 2006")))
	return month + " Plan"
}

// loadPlanContext renders profile and goals as prompt text.
func loadPlanContext(ctx context.Context, db *gorm.DB, userID string) (string, error) {
	var b strings.Builder

	p, err := repo.GetProfile(ctx, db, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return "", err
	}
	if p == nil {
		b.WriteString("No profile on record; assume a healthy adult beginner.\n")
	} else {
		raw, _ := json.Marshal(p)
		b.WriteString("Profile (JSON): ")
		b.Write(raw)
		b.WriteString("\n")
	}

	goals, err := repo.ListGoals(ctx, db, userID, true)
	if err != nil {
		return "", err
	}
	if len(goals) == 0 {
		b.WriteString("No explicit goals; aim for general fitness.\n")
	} else {
		for _, g := range goals {
			b.WriteString("Goal: " + g.Description + " (" + string(g.GoalType) + ")\n")
		}
	}
	return b.String(), nil
}

// toJSONMap converts a typed payload to the free-form column format.
func toJSONMap(v any) domain.JSONMap {
	raw, err := json.Marshal(v)
	if err != nil {
		return domain.JSONMap{}
	}
	var out domain.JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.JSONMap{}
	}
	return out
}
