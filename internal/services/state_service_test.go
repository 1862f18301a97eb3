package services

import (
	"context"
	"testing"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/repo"
)

func TestStateService_SnapshotNewUser(t *testing.T) {
	db := newServicesDB(t)
	s := &StateService{DB: db}

	snap, err := s.Snapshot(context.Background(), "fresh", "fresh@test.local")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.User == nil || snap.User.ID != "fresh" {
		t.Fatalf("user should be created on first contact: %+v", snap.User)
	}
	if snap.Profile != nil || snap.ActiveMealPlan != nil || snap.ActiveWorkoutPlan != nil {
		t.Fatalf("new user snapshot should be empty: %+v", snap)
	}
	if len(snap.Goals) != 0 || len(snap.Conversations) != 0 {
		t.Fatalf("new user snapshot should be empty: %+v", snap)
	}
}

func TestStateService_SnapshotPopulated(t *testing.T) {
	db := newServicesDB(t)
	ctx := context.Background()
	_, _ = repo.GetOrCreateUser(ctx, db, "u1", "u1@test.local")

	age := 34
	if err := repo.SaveProfile(ctx, db, &domain.UserProfile{UserID: "u1", Age: &age}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := repo.CreateGoal(ctx, db, &domain.Goal{UserID: "u1", GoalType: domain.GoalWeightLoss, Description: "lose 5kg", Target: "weight"}); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	ms := &PlanService{DB: db, LLM: erroringLLM{}, Kind: domain.PlanMeal}
	if _, err := ms.Generate(ctx, "u1"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := repo.CreateConversation(ctx, db, "u1"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	snap, err := (&StateService{DB: db}).Snapshot(ctx, "u1", "u1@test.local")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Profile == nil || snap.Profile.Age == nil || *snap.Profile.Age != 34 {
		t.Fatalf("profile missing: %+v", snap.Profile)
	}
	if len(snap.Goals) != 1 || snap.ActiveMealPlan == nil || snap.ActiveWorkoutPlan != nil {
		t.Fatalf("snapshot unexpected: %+v", snap)
	}
	if len(snap.Conversations) != 1 {
		t.Fatalf("conversations missing: %+v", snap.Conversations)
	}
}
