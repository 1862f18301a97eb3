package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/repo"
)

// userContext is the slice of user state the prompt builders need. Missing
// pieces stay nil; prompts degrade gracefully for brand-new users.
type userContext struct {
	Profile *domain.UserProfile
	Goals   []domain.Goal
}

// loadUserContext fetches profile and active goals, treating "not found" as
// empty rather than an error.
func loadUserContext(ctx context.Context, db *gorm.DB, userID string) (userContext, error) {
	var uc userContext

	p, err := repo.GetProfile(ctx, db, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return uc, err
	}
	uc.Profile = p

	goals, err := repo.ListGoals(ctx, db, userID, true)
	if err != nil {
		return uc, err
	}
	uc.Goals = goals
	return uc, nil
}

// describe renders the user context as prompt text.
func (uc userContext) describe() string {
	var b strings.Builder

	if uc.Profile == nil {
		b.WriteString("No profile on record yet.\n")
	} else {
		p := uc.Profile
		b.WriteString("User profile:\n")
		if p.Age != nil {
			fmt.Fprintf(&b, "- age: %d\n", *p.Age)
		}
		if p.Sex != nil {
			fmt.Fprintf(&b, "- sex: %s\n", *p.Sex)
		}
		if p.HeightCm != nil {
			fmt.Fprintf(&b, "- height: %.0f cm\n", *p.HeightCm)
		}
		if p.WeightKg != nil {
			fmt.Fprintf(&b, "- weight: %.1f kg\n", *p.WeightKg)
		}
		if p.ActivityLevel != nil {
			fmt.Fprintf(&b, "- activity level (0=sedentary, 1=athlete): %.2f\n", *p.ActivityLevel)
		}
		if len(p.DietaryPreferences) > 0 {
			fmt.Fprintf(&b, "- dietary preferences: %s\n", strings.Join(p.DietaryPreferences, ", "))
		}
		if len(p.WorkoutPreferences) > 0 {
			fmt.Fprintf(&b, "- workout preferences: %s\n", strings.Join(p.WorkoutPreferences, ", "))
		}
		if len(p.Conditions) > 0 {
			fmt.Fprintf(&b, "- conditions or injuries: %s\n", strings.Join(p.Conditions, ", "))
		}
		if p.CookingTimePerDayMinutes != nil {
			fmt.Fprintf(&b, "- cooking time per day: %d minutes\n", *p.CookingTimePerDayMinutes)
		}
		if p.MealPrepPreference != nil {
			fmt.Fprintf(&b, "- meal prep preference: %s\n", *p.MealPrepPreference)
		}
		if p.BudgetPerWeekUSD != nil {
			fmt.Fprintf(&b, "- food budget per week: $%.0f\n", *p.BudgetPerWeekUSD)
		}
		for k, v := range p.AdditionalContext {
			fmt.Fprintf(&b, "- %s: %v\n", k, v)
		}
	}

	if len(uc.Goals) == 0 {
		b.WriteString("No active goals on record.\n")
	} else {
		b.WriteString("Active goals:\n")
		for _, g := range uc.Goals {
			fmt.Fprintf(&b, "- [%s] %s (id: %s)\n", g.GoalType, g.Description, g.ID)
		}
	}
	return b.String()
}
