package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
)

func TestGetOrCreateUser(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u, err := GetOrCreateUser(ctx, db, "u1", "u1@test.local")
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if u.ID != "u1" || u.Email != "u1@test.local" {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Second call must fetch, not duplicate.
	again, err := GetOrCreateUser(ctx, db, "u1", "different@test.local")
	if err != nil {
		t.Fatalf("GetOrCreateUser second call: %v", err)
	}
	if again.Email != "u1@test.local" {
		t.Fatalf("existing user must keep its email, got %q", again.Email)
	}
	var count int64
	db.Model(&domain.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("user duplicated: count = %d", count)
	}
}

func TestProfile_SaveAndFetch(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.UserProfile{})
	seedUser(t, db, "u1")
	ctx := context.Background()

	if _, err := GetProfile(ctx, db, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	h := 180.0
	p := &domain.UserProfile{
		UserID:             "u1",
		HeightCm:           &h,
		DietaryPreferences: domain.StringList{"vegetarian"},
		AdditionalContext:  domain.JSONMap{"note": "night shifts"},
	}
	if err := SaveProfile(ctx, db, p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if p.ID == "" {
		t.Fatal("SaveProfile should assign an id")
	}

	got, err := GetProfile(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.HeightCm == nil || *got.HeightCm != 180.0 {
		t.Fatalf("height not persisted: %+v", got)
	}
	if len(got.DietaryPreferences) != 1 || got.DietaryPreferences[0] != "vegetarian" {
		t.Fatalf("dietary prefs not persisted: %+v", got.DietaryPreferences)
	}
	if got.AdditionalContext["note"] != "night shifts" {
		t.Fatalf("additional context not persisted: %+v", got.AdditionalContext)
	}

	// Update in place keeps the row.
	w := 75.5
	got.WeightKg = &w
	if err := SaveProfile(ctx, db, got); err != nil {
		t.Fatalf("SaveProfile update: %v", err)
	}
	var count int64
	db.Model(&domain.UserProfile{}).Count(&count)
	if count != 1 {
		t.Fatalf("profile duplicated: count = %d", count)
	}
}

func TestGoals_CreateListDeactivate(t *testing.T) {
	db := newTestDB(t, &domain.User{}, &domain.Goal{})
	seedUser(t, db, "u1")
	ctx := context.Background()

	g := &domain.Goal{
		UserID:      "u1",
		GoalType:    domain.GoalWeightLoss,
		Description: "lose 5kg before summer",
		Target:      "weight",
	}
	if err := CreateGoal(ctx, db, g); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if g.ID == "" || !g.IsActive {
		t.Fatalf("unexpected goal: %+v", g)
	}

	g2 := &domain.Goal{UserID: "u1", GoalType: domain.GoalEndurance, Description: "run a 10k", Target: "distance"}
	if err := CreateGoal(ctx, db, g2); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	all, err := ListGoals(ctx, db, "u1", false)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(all))
	}

	if err := DeactivateGoal(ctx, db, g.ID, "u1"); err != nil {
		t.Fatalf("DeactivateGoal: %v", err)
	}
	active, err := ListGoals(ctx, db, "u1", true)
	if err != nil {
		t.Fatalf("ListGoals active: %v", err)
	}
	if len(active) != 1 || active[0].ID != g2.ID {
		t.Fatalf("active goals unexpected: %+v", active)
	}

	if err := DeactivateGoal(ctx, db, "missing", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
