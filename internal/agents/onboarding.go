package agents

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
	"github.com/fitnesse/go-fitness-backend/internal/repo"
)

const onboardingFallback = "I'm having a quick connection hiccup. Ask me again in a moment."

// Onboarding collects the user's profile and goals through conversation.
// Each turn asks the model both for the reply text and for any facts it can
// extract; extracted facts are persisted immediately so progress survives
// abandoned sessions. When the model judges the intake complete it hands
// the conversation to coordination.
type Onboarding struct {
	DB  *gorm.DB
	LLM llm.Client

	// Temperature and MaxTokens for the conversational call.
	Temperature float64
	MaxTokens   int
}

type onboardingReply struct {
	Response      string         `json:"response"`
	ExtractedData *extractedData `json:"extracted_data,omitempty"`
	IsComplete    bool           `json:"is_complete"`
}

type extractedData struct {
	Profile *profilePatch `json:"profile,omitempty"`
	Goals   []goalPatch   `json:"goals,omitempty"`
}

// profilePatch mirrors domain.UserProfile's optional fields. Only fields
// the model actually learned this turn should be set.
type profilePatch struct {
	HeightCm                 *float64       `json:"height_cm,omitempty"`
	WeightKg                 *float64       `json:"weight_kg,omitempty"`
	Age                      *int           `json:"age,omitempty"`
	Sex                      *string        `json:"sex,omitempty"`
	ActivityLevel            *float64       `json:"activity_level,omitempty"`
	DietaryPreferences       []string       `json:"dietary_preferences,omitempty"`
	WorkoutPreferences       []string       `json:"workout_preferences,omitempty"`
	Conditions               []string       `json:"conditions,omitempty"`
	CookingTimePerDayMinutes *int           `json:"cooking_time_per_day_minutes,omitempty"`
	MealPrepPreference       *string        `json:"meal_prep_preference,omitempty"`
	BudgetPerWeekUSD         *float64       `json:"budget_per_week_usd,omitempty"`
	AdditionalContext        map[string]any `json:"additional_context,omitempty"`
}

type goalPatch struct {
	ID             string         `json:"id,omitempty"` // set to update an existing goal
	GoalType       string         `json:"goal_type"`
	Description    string         `json:"description"`
	Target         string         `json:"target"`
	TargetValue    *float64       `json:"target_value,omitempty"`
	TargetDate     string         `json:"target_date,omitempty"` // YYYY-MM-DD
	SuccessMetrics map[string]any `json:"success_metrics,omitempty"`
}

// Type implements Agent.
func (a *Onboarding) Type() domain.AgentType { return domain.AgentOnboarding }

// Process implements Agent. A failed model call degrades to a canned retry
// message instead of erroring the whole turn.
func (a *Onboarding) Process(ctx context.Context, userID, message string, history []llm.Message) (Response, error) {
	uc, err := loadUserContext(ctx, a.DB, userID)
	if err != nil {
		return Response{}, err
	}

	req := llm.Request{
		SystemPrompt: onboardingSystemPrompt(uc),
		Messages:     append(history, llm.Message{Role: domain.RoleUser, Content: message}),
		Temperature:  a.Temperature,
		MaxTokens:    a.MaxTokens,
	}
	reply, err := llm.GenerateStructured[onboardingReply](ctx, a.LLM, req)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("onboarding model call failed")
		return Response{Content: onboardingFallback}, nil
	}

	resp := Response{Content: reply.Response}

	if reply.ExtractedData != nil {
		updated, err := a.applyExtracted(ctx, userID, reply.ExtractedData)
		if err != nil {
			// A persistence hiccup must not eat the reply; the model will
			// re-extract on the next turn.
			log.Warn().Err(err).Str("user_id", userID).Msg("onboarding extraction persist failed")
		} else {
			resp.Metadata.ProfileUpdated = updated
		}
	}

	if reply.IsComplete {
		resp.Metadata.OnboardingComplete = true
		resp.Transition = &Transition{
			Target:      domain.AgentCoordination,
			GetGreeting: true,
		}
	}
	return resp, nil
}

// Greeting implements Agent. Onboarding is the initial state so this only
// runs if some future agent routes back here; a canned opener is enough.
func (a *Onboarding) Greeting(_ context.Context, _ string, _ TransitionContext) (Response, error) {
	return Response{
		Content: "Hi! I'm your fitness and nutrition assistant. To get started, tell me a bit " +
			"about yourself: your age, height, weight, and what you'd like to achieve.",
	}, nil
}

// applyExtracted persists what the model learned this turn. Profile scalars
// overwrite, lists union, additional context merges key-wise. Goals carrying
// an id update that goal; goals without one are created; active goals the
// extraction no longer mentions are deactivated.
func (a *Onboarding) applyExtracted(ctx context.Context, userID string, data *extractedData) (bool, error) {
	updated := false

	if data.Profile != nil {
		if err := a.mergeProfile(ctx, userID, data.Profile); err != nil {
			return false, err
		}
		updated = true
	}

	if len(data.Goals) > 0 {
		if err := a.reconcileGoals(ctx, userID, data.Goals); err != nil {
			return false, err
		}
		updated = true
	}
	return updated, nil
}

func (a *Onboarding) mergeProfile(ctx context.Context, userID string, patch *profilePatch) error {
	existing, err := repo.GetProfile(ctx, a.DB, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		existing = &domain.UserProfile{UserID: userID}
	}

	if patch.HeightCm != nil {
		existing.HeightCm = patch.HeightCm
	}
	if patch.WeightKg != nil {
		existing.WeightKg = patch.WeightKg
	}
	if patch.Age != nil {
		existing.Age = patch.Age
	}
	if patch.Sex != nil {
		existing.Sex = patch.Sex
	}
	if patch.ActivityLevel != nil {
		existing.ActivityLevel = patch.ActivityLevel
	}
	if patch.CookingTimePerDayMinutes != nil {
		existing.CookingTimePerDayMinutes = patch.CookingTimePerDayMinutes
	}
	if patch.MealPrepPreference != nil {
		existing.MealPrepPreference = patch.MealPrepPreference
	}
	if patch.BudgetPerWeekUSD != nil {
		existing.BudgetPerWeekUSD = patch.BudgetPerWeekUSD
	}

	existing.DietaryPreferences = unionStrings(existing.DietaryPreferences, patch.DietaryPreferences)
	existing.WorkoutPreferences = unionStrings(existing.WorkoutPreferences, patch.WorkoutPreferences)
	existing.Conditions = unionStrings(existing.Conditions, patch.Conditions)

	if len(patch.AdditionalContext) > 0 {
		if existing.AdditionalContext == nil {
			existing.AdditionalContext = domain.JSONMap{}
		}
		for k, v := range patch.AdditionalContext {
			existing.AdditionalContext[k] = v
		}
	}

	return repo.SaveProfile(ctx, a.DB, existing)
}

func (a *Onboarding) reconcileGoals(ctx context.Context, userID string, patches []goalPatch) error {
	existing, err := repo.ListGoals(ctx, a.DB, userID, true)
	if err != nil {
		return err
	}
	byID := make(map[string]*domain.Goal, len(existing))
	for i := range existing {
		byID[existing[i].ID] = &existing[i]
	}

	mentioned := make(map[string]bool, len(patches))
	for _, p := range patches {
		if g, ok := byID[p.ID]; p.ID != "" && ok {
			mentioned[p.ID] = true
			g.GoalType = domain.ParseGoalType(p.GoalType)
			g.Description = p.Description
			g.Target = p.Target
			g.TargetValue = p.TargetValue
			g.TargetDate = parseTargetDate(p.TargetDate)
			if len(p.SuccessMetrics) > 0 {
				g.SuccessMetrics = p.SuccessMetrics
			}
			if err := repo.UpdateGoal(ctx, a.DB, g); err != nil {
				return err
			}
			continue
		}
		g := &domain.Goal{
			UserID:         userID,
			GoalType:       domain.ParseGoalType(p.GoalType),
			Description:    p.Description,
			Target:         p.Target,
			TargetValue:    p.TargetValue,
			TargetDate:     parseTargetDate(p.TargetDate),
			SuccessMetrics: p.SuccessMetrics,
		}
		if err := repo.CreateGoal(ctx, a.DB, g); err != nil {
			return err
		}
	}

	for id := range byID {
		if !mentioned[id] {
			if err := repo.DeactivateGoal(ctx, a.DB, id, userID); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseTargetDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func unionStrings(have, add []string) []string {
	if len(add) == 0 {
		return have
	}
	seen := make(map[string]bool, len(have))
	for _, s := range have {
		seen[s] = true
	}
	out := have
	for _, s := range add {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func onboardingSystemPrompt(uc userContext) string {
	return `You are the onboarding assistant for a fitness and nutrition coaching service.
Your job is to learn who the user is through natural conversation: biometrics
(age, sex, height, weight), activity level, dietary and workout preferences,
medical conditions or injuries, cooking time, meal prep habits, food budget,
and what goals they want to pursue.

Ask for at most one or two missing pieces per turn and keep the tone warm
and brief. Put everything you learned this turn into extracted_data: profile
fields you newly learned, and the full current set of the user's goals (carry
the id for goals that already exist). Set is_complete to true only once you
know the basics (age, height, weight, activity level) and at least one goal.

Current state of the record:
` + uc.describe()
}
