// Chat HTTP handlers.
//
// This file exposes the conversational endpoints:
//   - POST /chat                                 (send a message, get the assistant reply)
//   - GET  /chat/conversations/{id}/messages     (list paginated messages, ETag support)
//
// The chat endpoint is the single write path for conversations: it appends
// exactly one user/assistant message pair per call and reports the agent that
// produced the reply in the response metadata.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/agents"
	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/repo"
	"github.com/fitnesse/go-fitness-backend/internal/services"
	"github.com/fitnesse/go-fitness-backend/internal/utils"
)

//
// DTOs
//

// ChatRequest is the JSON payload for one chat turn.
type ChatRequest struct {
	// ConversationID continues an existing conversation when set; when empty
	// a new conversation is started.
	ConversationID string `json:"conversation_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Message is the user's utterance. It must be non-empty.
	Message string `json:"message" binding:"required,min=1" example:"I want to lose 5kg before summer"`
	// AgentType optionally forces the conversation onto a specific agent
	// before routing. Unknown values are ignored.
	AgentType string `json:"agent_type,omitempty" example:"nutritionist"`
}

// ChatResponse is the JSON envelope for a completed chat turn.
type ChatResponse struct {
	ConversationID   string          `json:"conversation_id"`
	UserMessage      *domain.Message `json:"user_message"`
	AssistantMessage *domain.Message `json:"assistant_message"`
	Metadata         agents.Metadata `json:"metadata"`
}

// ListMessagesResponse contains a page of conversation messages and
// pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeMessage normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeMessage(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxMessageRunes inspects the concrete ChatService for a configured
// message-length limit. If unavailable, it returns a conservative fallback.
func discoverMaxMessageRunes(chatSvc ChatService) int {
	const fallback = 4000
	if cs, ok := chatSvc.(*services.ChatService); ok {
		if cs.MaxMessageRunes > 0 {
			return cs.MaxMessageRunes
		}
	}
	return fallback
}

//
// Handlers
//

// PostChat godoc
// @ID          postChat
// @Summary     Send a chat message
// @Description Appends a user message to a conversation and returns the assistant reply.
// @Description When conversation_id is omitted a new conversation is started with the
// @Description onboarding agent. The response metadata reports the agent that handled
// @Description the turn and any side effects (plan generated, log saved, and so on).
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.ChatRequest  true  "Chat turn payload"
//
// @Success     200  {object}  handlers.ChatResponse   "Assistant reply"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	message := sanitizeMessage(req.Message)
	maxRunes := discoverMaxMessageRunes(h.chatSvc)
	if maxRunes > 0 && utf8.RuneCountInString(message) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		return
	}
	if message == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	id := h.who(c)
	res, err := h.chatSvc.ProcessMessage(ctx, id.UserID, id.Email,
		strings.TrimSpace(req.ConversationID), message, strings.TrimSpace(req.AgentType))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		default:
			fail(c, http.StatusInternalServerError, ErrCodeChatFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ChatResponse{
		ConversationID:   res.ConversationID,
		UserMessage:      res.UserMessage,
		AssistantMessage: res.AssistantMessage,
		Metadata:         res.Metadata,
	})
}

// ListConversationMessages godoc
// @ID          listConversationMessages
// @Summary     List messages in a conversation
// @Description Returns a paginated list of messages in creation order.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Conversation ID (UUID)"      format(uuid)
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/conversations/{id}/messages [get]
func (h *Handlers) ListConversationMessages(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("id")
	id := h.who(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if cs, okSvc := h.chatSvc.(*services.ChatService); okSvc {
		db = cs.DB
	}
	if db != nil {
		count, maxTS, err := repo.MessagesStats(ctx, db, conversationID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, conversationID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)

	items, total, err := h.chatSvc.ListConversationMessages(ctx, id.UserID, conversationID, utils.PageOffset(page, pageSize), pageSize)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: paginate(page, pageSize, total),
	})
}
