// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users,
// profiles, and goals.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetUser fetches a user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user row with the given ID and email. CreatedAt
// is set to UTC.
func CreateUser(ctx context.Context, db *gorm.DB, id, email string) (*domain.User, error) {
	u := &domain.User{
		ID:        id,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetOrCreateUser fetches a user by ID, creating the row on first contact.
func GetOrCreateUser(ctx context.Context, db *gorm.DB, id, email string) (*domain.User, error) {
	u, err := GetUser(ctx, db, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return CreateUser(ctx, db, id, email)
}

// GetProfile fetches the profile row for userID, or ErrNotFound if the user
// has not been profiled yet.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile inserts or updates the user's profile row. A new row gets a
// UUID primary key; an existing one keeps its ID and CreatedAt.
func SaveProfile(ctx context.Context, db *gorm.DB, p *domain.UserProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(p).Error
}

// ListGoals returns the user's goals ordered by creation time ascending.
// Pass activeOnly to exclude deactivated goals.
func ListGoals(ctx context.Context, db *gorm.DB, userID string, activeOnly bool) ([]domain.Goal, error) {
	var out []domain.Goal
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// CreateGoal inserts a new goal row with a UUID primary key.
func CreateGoal(ctx context.Context, db *gorm.DB, g *domain.Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.IsActive = true
	g.CreatedAt = time.Now().UTC()
	g.UpdatedAt = g.CreatedAt
	return db.WithContext(ctx).Create(g).Error
}

// UpdateGoal persists changes to an existing goal row.
func UpdateGoal(ctx context.Context, db *gorm.DB, g *domain.Goal) error {
	g.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(g).Error
}

// DeactivateGoal flips is_active off for the given goal, enforcing user
// ownership. Returns ErrNotFound if no row matched.
func DeactivateGoal(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Goal{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
