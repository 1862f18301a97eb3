package domain

import (
	"time"
)

// PlanType distinguishes meal plans from workout plans.
type PlanType string

const (
	PlanMeal    PlanType = "meal"
	PlanWorkout PlanType = "workout"
)

// Plan stores a generated diet or exercise plan covering a period of time
// (30 days by default). PlanData is the generator's JSON payload: calorie
// targets, macros and sample meals for meal plans; weekly structure and
// exercises for workout plans. At most one plan per (user, type) is active
// at a time.
type Plan struct {
	ID       string   `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID   string   `json:"user_id"   gorm:"type:char(36);not null;index"`
	PlanType PlanType `json:"plan_type" gorm:"type:varchar(16);not null;index"`

	Name         string    `json:"name"          gorm:"type:varchar(255)"`
	StartDate    time.Time `json:"start_date"    gorm:"not null"`
	EndDate      time.Time `json:"end_date"      gorm:"not null"`
	DurationDays int       `json:"duration_days" gorm:"not null"`

	PlanData JSONMap `json:"plan_data" gorm:"serializer:json;not null"`

	IsActive    bool `json:"is_active"    gorm:"not null;default:true"`
	IsCompleted bool `json:"is_completed" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Plan.
func (Plan) TableName() string { return "plans" }
