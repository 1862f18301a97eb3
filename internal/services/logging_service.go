// Package services – logging services
//
// This file implements free-text meal and workout logging. Parsing asks the
// model for a structured estimate of what the user described; saving
// requires an active plan of the matching type so logs always attach to an
// ongoing program. A failed parse degrades to a low-confidence result with
// a clarifying question instead of an error.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
	"github.com/fitnesse/go-fitness-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ParseResult is the structured interpretation of a free-text log entry.
type ParseResult struct {
	NormalizedText string         `json:"normalized_text"`
	Estimate       domain.JSONMap `json:"estimate"`
	Items          []string       `json:"items"`
	Confidence     float64        `json:"confidence"` // 0..1
	Questions      []string       `json:"questions"`
	Metadata       domain.JSONMap `json:"metadata,omitempty"`
}

// logService is the shared engine behind MealLogService and
// WorkoutLogService.
type logService struct {
	DB  *gorm.DB
	LLM llm.Client

	kind             domain.LogType
	planKind         domain.PlanType
	parsePrompt      string
	fallbackQuestion string
}

// MealLogService parses and records what the user ate.
type MealLogService struct{ logService }

// WorkoutLogService parses and records what the user trained.
type WorkoutLogService struct{ logService }

// NewMealLogService wires a meal logger over db and client.
func NewMealLogService(db *gorm.DB, client llm.Client) *MealLogService {
	return &MealLogService{logService{
		DB:       db,
		LLM:      client,
		kind:     domain.LogMeal,
		planKind: domain.PlanMeal,
		parsePrompt: `You are a nutritionist's assistant. Parse the user's description of what
they ate into a structured estimate. Put calories and macro estimates into
"estimate" (keys: calories, protein_g, carbs_g, fat_g), each food into
"items", a cleaned-up restatement into "normalized_text", your confidence
in [0,1] into "confidence", and any clarifying questions you would need
into "questions".`,
		fallbackQuestion: "Roughly how big was the portion? (small/medium/large)",
	}}
}

// NewWorkoutLogService wires a workout logger over db and client.
func NewWorkoutLogService(db *gorm.DB, client llm.Client) *WorkoutLogService {
	return &WorkoutLogService{logService{
		DB:       db,
		LLM:      client,
		kind:     domain.LogWorkout,
		planKind: domain.PlanWorkout,
		parsePrompt: `You are a trainer's assistant. Parse the user's description of a workout
into a structured estimate. Put duration, sets, reps, and estimated effort
into "estimate" (keys: duration_minutes, exercises, perceived_effort), each
exercise into "items", a cleaned-up restatement into "normalized_text", your
confidence in [0,1] into "confidence", and any clarifying questions into
"questions".`,
		fallbackQuestion: "Roughly how long did the session last, and how hard did it feel?",
	}}
}

// Parse interprets text without persisting anything.
func (s *logService) Parse(ctx context.Context, userID, text string) (*ParseResult, error) {
	tr := otel.Tracer("services/LogService")
	ctx, span := tr.Start(ctx, "Parse",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("log.type", string(s.kind)),
		),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyLogText
	}

	res, err := llm.GenerateStructured[ParseResult](ctx, s.LLM, llm.Request{
		SystemPrompt: s.parsePrompt,
		Messages:     []llm.Message{{Role: domain.RoleUser, Content: text}},
		Temperature:  0.2,
		MaxTokens:    1024,
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("log_type", string(s.kind)).
			Msg("log parse failed, returning low-confidence fallback")
		return &ParseResult{
			NormalizedText: text,
			Estimate:       domain.JSONMap{},
			Confidence:     0.2,
			Questions:      []string{s.fallbackQuestion},
		}, nil
	}
	if res.NormalizedText == "" {
		res.NormalizedText = text
	}
	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	return &res, nil
}

// Save persists a parsed entry. The user must have an active plan of the
// matching type; otherwise ErrNoActivePlan is returned.
func (s *logService) Save(ctx context.Context, userID, rawText string, parsed *ParseResult, confirmed domain.JSONMap) (*domain.Log, error) {
	tr := otel.Tracer("services/LogService")
	ctx, span := tr.Start(ctx, "Save",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("log.type", string(s.kind)),
		),
	)
	defer span.End()

	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, ErrEmptyLogText
	}

	if _, err := repo.GetActivePlan(ctx, s.DB, userID, s.planKind); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}

	entry := &domain.Log{
		UserID:        userID,
		LogType:       s.kind,
		RawText:       rawText,
		ConfirmedData: confirmed,
	}
	if parsed != nil {
		entry.ParsedData = domain.JSONMap{
			"normalized_text": parsed.NormalizedText,
			"estimate":        parsed.Estimate,
			"items":           parsed.Items,
			"confidence":      parsed.Confidence,
			"questions":       parsed.Questions,
		}
	}
	if err := repo.CreateLog(ctx, s.DB, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LogFromText parses and saves in one step. Implements LogRecorder for the
// chat confirmation flow.
func (s *logService) LogFromText(ctx context.Context, userID, text string) (*domain.Log, error) {
	parsed, err := s.Parse(ctx, userID, text)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, userID, text, parsed, nil)
}

// ListLogs returns a page of the user's log history, newest first, with the
// total count. Empty logType means all types.
func (s *logService) ListLogs(ctx context.Context, userID string, logType domain.LogType, offset, limit int) ([]domain.Log, int64, error) {
	total, err := repo.CountLogs(ctx, s.DB, userID, logType)
	if err != nil {
		return nil, 0, err
	}
	out, err := repo.ListLogsPage(ctx, s.DB, userID, logType, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
