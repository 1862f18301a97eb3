// Plan HTTP handlers.
//
// This file exposes REST endpoints for meal and workout plans:
//   - POST  /plans/meal      (generate or return the active meal plan)
//   - POST  /plans/workout   (generate or return the active workout plan)
//   - GET   /plans/{id}      (fetch a plan by id)
//   - PATCH /plans/{id}      (replace a plan's payload)
//
// Generation is idempotent per plan type: when the user already has an
// active plan of the requested type it is returned unchanged.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/services"
)

// PlanResponse is the JSON envelope for a single plan.
type PlanResponse struct {
	Plan *domain.Plan `json:"plan"`
}

// UpdatePlanRequest is the JSON payload for adjusting a plan.
type UpdatePlanRequest struct {
	// PlanData fully replaces the plan's stored payload.
	PlanData domain.JSONMap `json:"plan_data" binding:"required"`
}

// GenerateMealPlan godoc
// @ID          generateMealPlan
// @Summary     Generate a meal plan
// @Description Generates a personalized meal plan from the user's profile and goals.
// @Description Returns the existing plan when an active one is already in place.
// @Tags        Plans
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     201  {object}  handlers.PlanResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /plans/meal [post]
func (h *Handlers) GenerateMealPlan(c *gin.Context) {
	h.generatePlan(c, h.mealPlans)
}

// GenerateWorkoutPlan godoc
// @ID          generateWorkoutPlan
// @Summary     Generate a workout plan
// @Description Generates a personalized workout plan from the user's profile and goals.
// @Description Returns the existing plan when an active one is already in place.
// @Tags        Plans
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     201  {object}  handlers.PlanResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /plans/workout [post]
func (h *Handlers) GenerateWorkoutPlan(c *gin.Context) {
	h.generatePlan(c, h.workoutPlans)
}

func (h *Handlers) generatePlan(c *gin.Context, svc PlanService) {
	id := h.who(c)
	plan, err := svc.Generate(c.Request.Context(), id.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodePlanFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, PlanResponse{Plan: plan})
}

// GetPlan godoc
// @ID          getPlan
// @Summary     Fetch a plan
// @Description Returns a plan owned by the current user.
// @Tags        Plans
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Plan ID (UUID)"         format(uuid)
//
// @Success     200  {object}  handlers.PlanResponse
// @Failure     404  {object}  handlers.ErrorResponse "Plan not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /plans/{id} [get]
func (h *Handlers) GetPlan(c *gin.Context) {
	id := h.who(c)

	// Lookup is by id and owner; either plan service resolves any type.
	plan, err := h.mealPlans.GetPlan(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPlanNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "plan not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodePlanFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, PlanResponse{Plan: plan})
}

// UpdatePlan godoc
// @ID          updatePlan
// @Summary     Adjust a plan
// @Description Replaces the payload of a plan owned by the current user, for
// @Description manual tweaks after generation (swap meals, change session days).
// @Tags        Plans
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Plan ID (UUID)"         format(uuid)
// @Param       body       body    handlers.UpdatePlanRequest  true  "Replacement payload"
//
// @Success     200  {object}  handlers.PlanResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Plan not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /plans/{id} [patch]
func (h *Handlers) UpdatePlan(c *gin.Context) {
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "plan_data required")
		return
	}

	id := h.who(c)

	// Update is by id and owner; either plan service resolves any type.
	plan, err := h.mealPlans.UpdatePlanData(c.Request.Context(), id.UserID, c.Param("id"), req.PlanData)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPlanData):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "plan_data required")
		case errors.Is(err, services.ErrPlanNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "plan not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodePlanFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, PlanResponse{Plan: plan})
}
