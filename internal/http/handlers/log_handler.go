// Log HTTP handlers.
//
// This file exposes REST endpoints for meal and workout logging:
//   - POST /logs/meals/parse     (parse free text, no persistence)
//   - POST /logs/meals           (save a meal log)
//   - POST /logs/workouts/parse  (parse free text, no persistence)
//   - POST /logs/workouts        (save a workout log)
//   - GET  /logs                 (list logs, optionally filtered by type)
//
// Parsing is a dry run clients can use to preview the structured estimate
// before committing. Saving requires an active plan of the matching type.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/services"
	"github.com/fitnesse/go-fitness-backend/internal/utils"
)

//
// DTOs
//

// ParseLogRequest is the JSON payload for a parse dry run.
type ParseLogRequest struct {
	// Text is the free-form description to interpret.
	Text string `json:"text" binding:"required,min=1" example:"grilled chicken with rice and a side salad"`
}

// SaveLogRequest is the JSON payload for persisting a log entry.
type SaveLogRequest struct {
	// Text is the free-form description. When Parsed is nil the server parses
	// it before saving.
	Text string `json:"text" binding:"required,min=1" example:"45 minutes of strength training"`
	// Parsed optionally carries a previously returned parse result so the
	// entry is saved exactly as previewed.
	Parsed *services.ParseResult `json:"parsed,omitempty"`
	// ConfirmedData optionally carries user-corrected values.
	ConfirmedData domain.JSONMap `json:"confirmed_data,omitempty"`
}

// LogResponse is the JSON envelope for a single log entry.
type LogResponse struct {
	Log *domain.Log `json:"log"`
}

// ListLogsResponse contains a page of log entries and pagination metadata.
type ListLogsResponse struct {
	Logs       []domain.Log `json:"logs"`
	Pagination Pagination   `json:"pagination"`
}

//
// Handlers
//

// ParseMealLog godoc
// @ID          parseMealLog
// @Summary     Parse a meal description
// @Description Interprets free text into items and macro estimates without saving anything.
// @Tags        Logs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.ParseLogRequest  true  "Text to parse"
//
// @Success     200  {object}  services.ParseResult
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /logs/meals/parse [post]
func (h *Handlers) ParseMealLog(c *gin.Context) {
	h.parseLog(c, h.mealLogs)
}

// ParseWorkoutLog godoc
// @ID          parseWorkoutLog
// @Summary     Parse a workout description
// @Description Interprets free text into exercises, sets, and reps without saving anything.
// @Tags        Logs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.ParseLogRequest  true  "Text to parse"
//
// @Success     200  {object}  services.ParseResult
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /logs/workouts/parse [post]
func (h *Handlers) ParseWorkoutLog(c *gin.Context) {
	h.parseLog(c, h.workoutLogs)
}

func (h *Handlers) parseLog(c *gin.Context, svc LogService) {
	var req ParseLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	id := h.who(c)
	res, err := svc.Parse(c.Request.Context(), id.UserID, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrEmptyLogText) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeLogFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// SaveMealLog godoc
// @ID          saveMealLog
// @Summary     Save a meal log
// @Description Persists a meal log entry. Requires an active meal plan.
// @Tags        Logs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SaveLogRequest  true  "Log payload"
//
// @Success     201  {object}  handlers.LogResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse "No active meal plan"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /logs/meals [post]
func (h *Handlers) SaveMealLog(c *gin.Context) {
	h.saveLog(c, h.mealLogs, "no active meal plan")
}

// SaveWorkoutLog godoc
// @ID          saveWorkoutLog
// @Summary     Save a workout log
// @Description Persists a workout log entry. Requires an active workout plan.
// @Tags        Logs
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SaveLogRequest  true  "Log payload"
//
// @Success     201  {object}  handlers.LogResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse "No active workout plan"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /logs/workouts [post]
func (h *Handlers) SaveWorkoutLog(c *gin.Context) {
	h.saveLog(c, h.workoutLogs, "no active workout plan")
}

func (h *Handlers) saveLog(c *gin.Context, svc LogService, noPlanMsg string) {
	var req SaveLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	id := h.who(c)
	ctx := c.Request.Context()

	var (
		entry *domain.Log
		err   error
	)
	if req.Parsed == nil && req.ConfirmedData == nil {
		entry, err = svc.LogFromText(ctx, id.UserID, req.Text)
	} else {
		entry, err = svc.Save(ctx, id.UserID, req.Text, req.Parsed, req.ConfirmedData)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyLogText):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		case errors.Is(err, services.ErrNoActivePlan):
			fail(c, http.StatusConflict, ErrCodeConflict, noPlanMsg)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeLogFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, LogResponse{Log: entry})
}

// ListLogs godoc
// @ID          listLogs
// @Summary     List log entries
// @Description Returns a page of the user's logs, newest first. The type query
// @Description parameter filters by log type (meal, workout, goal_checkin).
// @Tags        Logs
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       type       query   string  false "Log type filter"        Enums(meal, workout, goal_checkin)
// @Param       page       query   int     false "Page number"            minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"         minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListLogsResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /logs [get]
func (h *Handlers) ListLogs(c *gin.Context) {
	id := h.who(c)
	page, pageSize := clampPagination(c)

	logType := domain.LogType(c.Query("type"))
	switch logType {
	case "", domain.LogMeal, domain.LogWorkout, domain.LogGoalCheckin:
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown log type")
		return
	}

	// Listing is type-filtered in the repository; either log service serves it.
	items, total, err := h.mealLogs.ListLogs(c.Request.Context(), id.UserID, logType, utils.PageOffset(page, pageSize), pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListLogsResponse{
		Logs:       items,
		Pagination: paginate(page, pageSize, total),
	})
}
