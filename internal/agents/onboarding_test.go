package agents

import (
	"context"
	"errors"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/repo"
)

func TestOnboarding_ExtractsAndPersists(t *testing.T) {
	db := newAgentsDB(t)
	fc := &scriptedLLM{replies: []string{
		`{"response": "Great, noted! What's your height?",
		  "extracted_data": {
		    "profile": {"age": 34, "dietary_preferences": ["vegetarian"]},
		    "goals": [{"goal_type": "weight_loss", "description": "lose 5kg", "target": "weight", "target_value": 70}]
		  },
		  "is_complete": false}`,
	}}
	a := &Onboarding{DB: db, LLM: fc, Temperature: 0.7, MaxTokens: 2048}
	ctx := context.Background()

	resp, err := a.Process(ctx, "u1", "I'm 34 and vegetarian, want to lose 5kg", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Transition != nil {
		t.Fatalf("incomplete onboarding must not transition: %+v", resp.Transition)
	}
	if !resp.Metadata.ProfileUpdated {
		t.Fatal("profile_updated metadata expected")
	}

	p, err := repo.GetProfile(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Age == nil || *p.Age != 34 {
		t.Fatalf("age not persisted: %+v", p)
	}
	if len(p.DietaryPreferences) != 1 || p.DietaryPreferences[0] != "vegetarian" {
		t.Fatalf("dietary prefs not persisted: %+v", p.DietaryPreferences)
	}

	goals, err := repo.ListGoals(ctx, db, "u1", true)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(goals) != 1 || goals[0].GoalType != domain.GoalWeightLoss {
		t.Fatalf("goal not persisted: %+v", goals)
	}
}

func TestOnboarding_PersistFailureStillReplies(t *testing.T) {
	// A second, read-only connection to the seeded database: reads work, so
	// the prompt context loads, but saving the extraction fails.
	db, dsn := newAgentsDBFile(t)
	ro, err := gorm.Open(sqlite.Open("file:"+dsn+"?mode=ro"), &gorm.Config{
		Logger: db.Logger,
	})
	if err != nil {
		t.Fatalf("open read-only sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := ro.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	a := &Onboarding{DB: ro, LLM: &scriptedLLM{replies: []string{
		`{"response": "Got it, 34 years old!",
		  "extracted_data": {"profile": {"age": 34}},
		  "is_complete": false}`,
	}}}

	resp, err := a.Process(context.Background(), "u1", "I'm 34", nil)
	if err != nil {
		t.Fatalf("a storage failure must not fail the turn: %v", err)
	}
	if resp.Content != "Got it, 34 years old!" {
		t.Fatalf("model reply expected, got %q", resp.Content)
	}
	if resp.Metadata.ProfileUpdated {
		t.Fatal("profile_updated must not be reported when nothing was saved")
	}
}

func TestOnboarding_ProfileMergeUnionsLists(t *testing.T) {
	db := newAgentsDB(t)
	a := &Onboarding{DB: db, LLM: &scriptedLLM{replies: []string{
		`{"response": "ok", "extracted_data": {"profile": {"dietary_preferences": ["vegetarian"]}}, "is_complete": false}`,
		`{"response": "ok", "extracted_data": {"profile": {"dietary_preferences": ["vegetarian", "low-carb"], "age": 30}}, "is_complete": false}`,
	}}}
	ctx := context.Background()

	if _, err := a.Process(ctx, "u1", "vegetarian", nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := a.Process(ctx, "u1", "also low-carb, I'm 30", nil); err != nil {
		t.Fatalf("Process: %v", err)
	}

	p, err := repo.GetProfile(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if len(p.DietaryPreferences) != 2 {
		t.Fatalf("list union failed: %+v", p.DietaryPreferences)
	}
	if p.Age == nil || *p.Age != 30 {
		t.Fatalf("scalar merge failed: %+v", p)
	}
}

func TestOnboarding_GoalReconciliation(t *testing.T) {
	db := newAgentsDB(t)
	ctx := context.Background()

	keep := &domain.Goal{UserID: "u1", GoalType: domain.GoalEndurance, Description: "run a 10k", Target: "distance"}
	drop := &domain.Goal{UserID: "u1", GoalType: domain.GoalOther, Description: "outdated", Target: "x"}
	if err := repo.CreateGoal(ctx, db, keep); err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	if err := repo.CreateGoal(ctx, db, drop); err != nil {
		t.Fatalf("seed goal: %v", err)
	}

	a := &Onboarding{DB: db, LLM: &scriptedLLM{replies: []string{
		`{"response": "ok",
		  "extracted_data": {"goals": [
		    {"id": "` + keep.ID + `", "goal_type": "endurance", "description": "run a 10k under an hour", "target": "distance"},
		    {"goal_type": "muscle_gain", "description": "add lean mass", "target": "weight"}
		  ]},
		  "is_complete": false}`,
	}}}

	if _, err := a.Process(ctx, "u1", "update my goals", nil); err != nil {
		t.Fatalf("Process: %v", err)
	}

	active, err := repo.ListGoals(ctx, db, "u1", true)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active goals, got %+v", active)
	}
	byType := map[domain.GoalType]domain.Goal{}
	for _, g := range active {
		byType[g.GoalType] = g
	}
	if got := byType[domain.GoalEndurance]; got.ID != keep.ID || got.Description != "run a 10k under an hour" {
		t.Fatalf("existing goal not updated in place: %+v", got)
	}
	if _, ok := byType[domain.GoalMuscleGain]; !ok {
		t.Fatal("new goal not created")
	}

	// The omitted goal is deactivated, not deleted.
	all, _ := repo.ListGoals(ctx, db, "u1", false)
	if len(all) != 3 {
		t.Fatalf("deactivated goal should remain in history, got %d rows", len(all))
	}
}

func TestOnboarding_CompleteTransitionsToCoordination(t *testing.T) {
	db := newAgentsDB(t)
	a := &Onboarding{DB: db, LLM: &scriptedLLM{replies: []string{
		`{"response": "You're all set!", "is_complete": true}`,
	}}}

	resp, err := a.Process(context.Background(), "u1", "that's everything", nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Transition == nil || resp.Transition.Target != domain.AgentCoordination || !resp.Transition.GetGreeting {
		t.Fatalf("expected greeting transition to coordination: %+v", resp.Transition)
	}
	if !resp.Metadata.OnboardingComplete {
		t.Fatalf("onboarding_complete metadata expected: %+v", resp.Metadata)
	}
}

func TestOnboarding_ModelFailureFallsBack(t *testing.T) {
	a := &Onboarding{DB: newAgentsDB(t), LLM: &scriptedLLM{err: errors.New("unavailable")}}

	resp, err := a.Process(context.Background(), "u1", "hello", nil)
	if err != nil {
		t.Fatalf("model failure must degrade, not error: %v", err)
	}
	if resp.Content != onboardingFallback {
		t.Fatalf("fallback expected, got %q", resp.Content)
	}
	if resp.Transition != nil || resp.Metadata.ProfileUpdated {
		t.Fatalf("fallback must not carry side effects: %+v", resp)
	}
}
