package domain

import (
	"time"
)

// LogType distinguishes the kinds of entries the unified logs table holds.
type LogType string

const (
	LogMeal        LogType = "meal"
	LogWorkout     LogType = "workout"
	LogGoalCheckin LogType = "goal_checkin"
)

// Log stores one logged entry for a user, typed by LogType with JSON
// payloads. RawText is the user's original free-text description;
// ParsedData is the structured parse of it and ConfirmedData what the user
// accepted. LoggedAt is when the meal/workout happened, which may differ
// from CreatedAt.
type Log struct {
	ID      string  `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID  string  `json:"user_id"  gorm:"type:char(36);not null;index"`
	LogType LogType `json:"log_type" gorm:"type:varchar(16);not null;index"`

	RawText       string  `json:"raw_text"                 gorm:"type:text;not null"`
	ParsedData    JSONMap `json:"parsed_data,omitempty"    gorm:"serializer:json"`
	ConfirmedData JSONMap `json:"confirmed_data,omitempty" gorm:"serializer:json"`
	Details       JSONMap `json:"details,omitempty"        gorm:"serializer:json"`

	LoggedAt  time.Time `json:"logged_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Log.
func (Log) TableName() string { return "logs" }
