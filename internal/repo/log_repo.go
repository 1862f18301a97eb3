// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Log model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
)

// CreateLog inserts a new log entry with a UUID primary key. LoggedAt
// defaults to now when the caller leaves it zero.
func CreateLog(ctx context.Context, db *gorm.DB, l *domain.Log) error {
	now := time.Now().UTC()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.LoggedAt.IsZero() {
		l.LoggedAt = now
	}
	l.CreatedAt = now
	l.UpdatedAt = now
	return db.WithContext(ctx).Create(l).Error
}

// CountLogs returns the total number of log entries for userID, optionally
// filtered by type (empty logType means all types).
func CountLogs(ctx context.Context, db *gorm.DB, userID string, logType domain.LogType) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Log{}).Where("user_id = ?", userID)
	if logType != "" {
		q = q.Where("log_type = ?", logType)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListLogsPage returns a paginated slice of log entries for userID, newest
// first, optionally filtered by type (empty logType means all types).
func ListLogsPage(ctx context.Context, db *gorm.DB, userID string, logType domain.LogType, offset, limit int) ([]domain.Log, error) {
	var out []domain.Log
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if logType != "" {
		q = q.Where("log_type = ?", logType)
	}
	err := q.Order("logged_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetLog fetches a log entry by ID and owner, or ErrNotFound.
func GetLog(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Log, error) {
	var l domain.Log
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}
