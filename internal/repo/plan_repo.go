// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Plan
// model.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
)

// CreatePlan inserts a new plan row with a UUID primary key, deactivating
// any previously active plan of the same type first so the "one active plan
// per type" rule holds.
func CreatePlan(ctx context.Context, db *gorm.DB, p *domain.Plan) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.Plan{}).
			Where("user_id = ? AND plan_type = ? AND is_active = ?", p.UserID, p.PlanType, true).
			Updates(map[string]any{"is_active": false, "updated_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Create(p).Error
	})
}

// GetPlan fetches a plan by ID and owner, or ErrNotFound.
func GetPlan(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Plan, error) {
	var p domain.Plan
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetActivePlan returns the user's active plan of the given type, or
// ErrNotFound when none exists.
func GetActivePlan(ctx context.Context, db *gorm.DB, userID string, planType domain.PlanType) (*domain.Plan, error) {
	var p domain.Plan
	err := db.WithContext(ctx).
		Where("user_id = ? AND plan_type = ? AND is_active = ?", userID, planType, true).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlans returns all plans owned by userID, most recent first.
func ListPlans(ctx context.Context, db *gorm.DB, userID string) ([]domain.Plan, error) {
	var out []domain.Plan
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdatePlanData replaces the plan's payload. Returns ErrNotFound if the
// plan does not exist or is not owned by userID.
func UpdatePlanData(ctx context.Context, db *gorm.DB, id, userID string, data domain.JSONMap) error {
	// Map-based Updates skips gorm serializers, so marshal the column here.
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).
		Model(&domain.Plan{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"plan_data": string(raw), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
