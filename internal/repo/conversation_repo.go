// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
)

// CreateConversation inserts a new conversation owned by userID, starting in
// the onboarding state. The ID is a randomly generated UUID.
func CreateConversation(ctx context.Context, db *gorm.DB, userID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		AgentType: domain.AgentOnboarding,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a conversation by ID and owner, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateConversation resolves the conversation a chat turn belongs to.
// With an empty id it creates a fresh conversation; with a non-empty id it
// fetches the existing one and returns ErrNotFound if the id is unknown
// rather than silently starting a new session.
func GetOrCreateConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	if id == "" {
		return CreateConversation(ctx, db, userID)
	}
	c, err := GetConversation(ctx, db, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListConversations returns all conversations owned by userID, most recent
// first.
func ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateAgentType persists a state transition for the conversation. It is
// the only write path for the agent_type column. Returns ErrNotFound if the
// conversation does not exist.
func UpdateAgentType(ctx context.Context, db *gorm.DB, id string, agent domain.AgentType) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{"agent_type": agent, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
