// Package domain defines the persistence models for users, conversations,
// messages, profiles, goals, plans, and logs. These types are mapped with
// GORM and form the core data layer of the fitness backend.
package domain

import (
	"time"
)

// Roles a message can be authored by.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// JSONMap is a free-form JSON object column. Different rows may carry
// different keys depending on the owning record's type.
type JSONMap map[string]any

// StringList is a JSON array-of-strings column.
type StringList []string

// User is the identity anchor every other aggregate hangs off.
// Users are created lazily on first interaction; the identity itself is
// supplied by an identity.Provider so real authentication can be swapped
// in without touching persistence or orchestration.
type User struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Conversation is a long-lived chat session owned by a user. Its AgentType
// column is the conversation's single state-machine variable: at most one
// agent owns a conversation at any instant. New conversations start in
// onboarding. Only the orchestrator mutates AgentType; agents request
// transitions but never write them.
type Conversation struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_conversations"`
	AgentType AgentType `json:"agent_type" gorm:"type:varchar(16);not null;default:'onboarding'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is one turn in a conversation, authored by "user" or "assistant".
// Messages form an append-only log; they are never updated or deleted, and
// creation order is the sole timeline used to rebuild agent history.
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	Role           string    `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`

	// Conversation is the parent session. Messages are cascade-deleted
	// if their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
