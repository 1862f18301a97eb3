// Handler wiring and shared service contracts.
//
// Handlers are transport-thin: they resolve the caller's identity, validate
// and normalize inputs, delegate to application services, and translate
// results into HTTP responses. Business rules live in internal/services.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/identity"
	"github.com/fitnesse/go-fitness-backend/internal/services"
	"github.com/fitnesse/go-fitness-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ChatService defines the conversational operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// ProcessMessage runs one chat turn: persist the user message, route it
	// to the active agent, and persist the assistant reply.
	ProcessMessage(ctx context.Context, userID, email, conversationID, message, agentOverride string) (*services.ChatResult, error)
	// ListConversationMessages returns a page of a conversation's messages in
	// creation order, plus the total count.
	ListConversationMessages(ctx context.Context, userID, conversationID string, offset, limit int) ([]domain.Message, int64, error)
}

// PlanService defines plan generation, retrieval, and adjustment for one
// plan type.
type PlanService interface {
	// Generate returns the user's active plan, creating one when none exists.
	Generate(ctx context.Context, userID string) (*domain.Plan, error)
	// GetPlan fetches a plan owned by userID.
	GetPlan(ctx context.Context, userID, planID string) (*domain.Plan, error)
	// UpdatePlanData replaces a plan's payload and returns the updated plan.
	UpdatePlanData(ctx context.Context, userID, planID string, data domain.JSONMap) (*domain.Plan, error)
}

// LogService defines free-text log parsing and persistence for one log type.
type LogService interface {
	// Parse interprets a free-text entry into a structured estimate.
	Parse(ctx context.Context, userID, text string) (*services.ParseResult, error)
	// Save persists a log entry; parsed and confirmed payloads are optional.
	Save(ctx context.Context, userID, rawText string, parsed *services.ParseResult, confirmed domain.JSONMap) (*domain.Log, error)
	// LogFromText parses and saves in one step.
	LogFromText(ctx context.Context, userID, text string) (*domain.Log, error)
	// ListLogs returns a page of the user's logs plus the total count.
	// An empty logType matches all types.
	ListLogs(ctx context.Context, userID string, logType domain.LogType, offset, limit int) ([]domain.Log, int64, error)
}

// StateService assembles the client bootstrap snapshot.
type StateService interface {
	Snapshot(ctx context.Context, userID, email string) (*services.StateSnapshot, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for chat, plans, logs, and state.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	chatSvc      ChatService
	mealPlans    PlanService
	workoutPlans PlanService
	mealLogs     LogService
	workoutLogs  LogService
	stateSvc     StateService
	ident        identity.Provider
}

// New constructs and returns a Handlers instance bound to the given services.
func New(chatSvc ChatService, mealPlans, workoutPlans PlanService, mealLogs, workoutLogs LogService, stateSvc StateService, ident identity.Provider) *Handlers {
	return &Handlers{
		chatSvc:      chatSvc,
		mealPlans:    mealPlans,
		workoutPlans: workoutPlans,
		mealLogs:     mealLogs,
		workoutLogs:  workoutLogs,
		stateSvc:     stateSvc,
		ident:        ident,
	}
}

// who resolves the caller's identity from the request. The provider falls
// back to the shared demo identity when no valid X-User-ID header is present.
func (h *Handlers) who(c *gin.Context) identity.Identity {
	if c == nil || c.Request == nil {
		return h.ident.Resolve(nil)
	}
	return h.ident.Resolve(c.Request)
}

//
// Shared DTOs and helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginate turns (page, pageSize, total) into response metadata.
func paginate(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
