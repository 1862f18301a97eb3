// State HTTP handler.
//
// GET /state returns everything a client needs to render its initial screen:
// the user row (created on first contact), profile, active goals, active
// plans, and the conversation list.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetState godoc
// @ID          getState
// @Summary     Bootstrap state
// @Description Returns the user, profile, goals, active plans, and conversations
// @Description in one call. The user row is created on first contact.
// @Tags        State
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  services.StateSnapshot
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /state [get]
func (h *Handlers) GetState(c *gin.Context) {
	id := h.who(c)
	snap, err := h.stateSvc.Snapshot(c.Request.Context(), id.UserID, id.Email)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, snap)
}
