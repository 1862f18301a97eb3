// Package services – StateService
//
// This file implements the bootstrap snapshot a client fetches on startup:
// the user, their profile and active goals, active plans of both types, and
// their conversations. Missing pieces come back nil rather than erroring so
// a brand-new user gets a usable (mostly empty) snapshot.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// StateSnapshot is everything a client needs to render its initial screen.
type StateSnapshot struct {
	User              *domain.User           `json:"user"`
	Profile           *domain.UserProfile    `json:"profile,omitempty"`
	Goals             []domain.Goal          `json:"goals"`
	ActiveMealPlan    *domain.Plan           `json:"active_meal_plan,omitempty"`
	ActiveWorkoutPlan *domain.Plan           `json:"active_workout_plan,omitempty"`
	Conversations     []domain.Conversation  `json:"conversations"`
}

// StateService assembles bootstrap snapshots.
type StateService struct {
	DB *gorm.DB
}

// Snapshot builds the bootstrap state for userID, creating the user row on
// first contact.
func (s *StateService) Snapshot(ctx context.Context, userID, email string) (*StateSnapshot, error) {
	tr := otel.Tracer("services/StateService")
	ctx, span := tr.Start(ctx, "Snapshot")
	span.SetAttributes(attribute.String("user.id", userID))
	defer span.End()

	user, err := repo.GetOrCreateUser(ctx, s.DB, userID, email)
	if err != nil {
		return nil, err
	}

	snap := &StateSnapshot{User: user}

	profile, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	snap.Profile = profile

	if snap.Goals, err = repo.ListGoals(ctx, s.DB, userID, true); err != nil {
		return nil, err
	}

	meal, err := repo.GetActivePlan(ctx, s.DB, userID, domain.PlanMeal)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	snap.ActiveMealPlan = meal

	workout, err := repo.GetActivePlan(ctx, s.DB, userID, domain.PlanWorkout)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	snap.ActiveWorkoutPlan = workout

	if snap.Conversations, err = repo.ListConversations(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	return snap, nil
}
