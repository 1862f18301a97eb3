package domain

import (
	"time"
)

// GoalType categorizes what a goal is about.
type GoalType string

// Known goal types. Unrecognized values extracted from conversation are
// normalized to GoalOther.
const (
	GoalWeightLoss     GoalType = "weight_loss"
	GoalWeightGain     GoalType = "weight_gain"
	GoalMuscleGain     GoalType = "muscle_gain"
	GoalEndurance      GoalType = "endurance"
	GoalGeneralFitness GoalType = "general_fitness"
	GoalFlexibility    GoalType = "flexibility"
	GoalNutrition      GoalType = "nutrition"
	GoalBodyFat        GoalType = "body_fat_percentage"
	GoalLongevity      GoalType = "longevity"
	GoalOther          GoalType = "other"
)

// ParseGoalType normalizes a goal-type string, falling back to GoalOther.
func ParseGoalType(s string) GoalType {
	switch GoalType(s) {
	case GoalWeightLoss, GoalWeightGain, GoalMuscleGain, GoalEndurance,
		GoalGeneralFitness, GoalFlexibility, GoalNutrition, GoalBodyFat,
		GoalLongevity, GoalOther:
		return GoalType(s)
	}
	return GoalOther
}

// UserProfile stores factual attributes about a user, collected through
// conversation by the onboarding agent. All biometric and lifestyle fields
// are optional; AdditionalContext holds anything the model learned that
// does not fit the fixed columns ("works night shifts", "shellfish
// allergy", ...).
type UserProfile struct {
	ID     string `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID string `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`

	// Biometrics
	HeightCm *float64 `json:"height_cm,omitempty"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	Age      *int     `json:"age,omitempty"`
	Sex      *string  `json:"sex,omitempty" gorm:"type:varchar(32)"`

	// Lifestyle. ActivityLevel is 0.0 (sedentary) to 1.0 (pro athlete).
	ActivityLevel            *float64   `json:"activity_level,omitempty"`
	DietaryPreferences       StringList `json:"dietary_preferences,omitempty" gorm:"serializer:json"`
	WorkoutPreferences       StringList `json:"workout_preferences,omitempty" gorm:"serializer:json"`
	Conditions               StringList `json:"conditions,omitempty"          gorm:"serializer:json"`
	CookingTimePerDayMinutes *int       `json:"cooking_time_per_day_minutes,omitempty"`
	MealPrepPreference       *string    `json:"meal_prep_preference,omitempty" gorm:"type:varchar(32)"`
	BudgetPerWeekUSD         *float64   `json:"budget_per_week_usd,omitempty"`

	// AdditionalContext holds model-discovered facts outside the schema.
	AdditionalContext JSONMap `json:"additional_context,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// Goal is something the user wants to achieve and how success is measured.
// A user can hold several goals at once; inactive goals are kept for
// history rather than deleted. Target is what is being measured ("weight",
// "5k time") and TargetValue the optional number to hit.
type Goal struct {
	ID          string   `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string   `json:"user_id"     gorm:"type:char(36);not null;index"`
	GoalType    GoalType `json:"goal_type"   gorm:"type:varchar(32);not null"`
	Description string   `json:"description" gorm:"type:text;not null"`
	Target      string   `json:"target"      gorm:"type:varchar(255);not null"`
	TargetValue *float64 `json:"target_value,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`

	// SuccessMetrics is free-form, e.g. {"primary": "run_5k", "target_time_minutes": 25}.
	SuccessMetrics JSONMap `json:"success_metrics,omitempty" gorm:"serializer:json"`

	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Goal.
func (Goal) TableName() string { return "goals" }
