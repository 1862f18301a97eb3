package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/identity"
	"github.com/fitnesse/go-fitness-backend/internal/repo"
	"github.com/fitnesse/go-fitness-backend/internal/services"
)

func postChat(r *gin.Engine, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestPostChat_BadJSON_Empty_TooLong(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newStubHandlers(nil)
	r := gin.New()
	r.POST("/chat", h.PostChat)

	if w := postChat(r, "{bad", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json -> %d", w.Code)
	}
	// Binding accepts whitespace; sanitize reduces it to empty -> 400.
	if w := postChat(r, `{"message":"   "}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("blank message -> %d", w.Code)
	}
	// Stub services fall back to the 4000-rune edge cap.
	long := strings.Repeat("x", 4001)
	if w := postChat(r, `{"message":"`+long+`"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized message -> %d", w.Code)
	}
}

func TestPostChat_Success_IdentityAndSanitize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotUser, gotEmail, gotMsg, gotOverride string
	svc := stubChatSvc{
		process: func(_ context.Context, userID, email, conversationID, message, agentOverride string) (*services.ChatResult, error) {
			gotUser, gotEmail, gotMsg, gotOverride = userID, email, message, agentOverride
			return &services.ChatResult{
				ConversationID:   "c1",
				UserMessage:      &domain.Message{ID: "m1", Role: domain.RoleUser, Content: message},
				AssistantMessage: &domain.Message{ID: "m2", Role: domain.RoleAssistant, Content: "hello"},
			}, nil
		},
	}
	h := newStubHandlers(svc)
	r := gin.New()
	r.POST("/chat", h.PostChat)

	w := postChat(r, `{"message":"a\r\n\r\n\r\nb","agent_type":" trainer "}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("chat -> %d body=%s", w.Code, w.Body.String())
	}
	if gotUser != identity.DefaultUserID || gotEmail != identity.DefaultUserEmail {
		t.Fatalf("default identity expected, got %q %q", gotUser, gotEmail)
	}
	if gotMsg != "a\n\nb" {
		t.Fatalf("message not sanitized: %q", gotMsg)
	}
	if gotOverride != "trainer" {
		t.Fatalf("override not trimmed: %q", gotOverride)
	}

	var out ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.ConversationID != "c1" || out.AssistantMessage == nil || out.AssistantMessage.Content != "hello" {
		t.Fatalf("unexpected envelope: %+v", out)
	}
}

func TestPostChat_HeaderOverridesIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotUser string
	svc := stubChatSvc{
		process: func(_ context.Context, userID, _, _, _, _ string) (*services.ChatResult, error) {
			gotUser = userID
			return &services.ChatResult{ConversationID: "c1"}, nil
		},
	}
	h := newStubHandlers(svc)
	r := gin.New()
	r.POST("/chat", h.PostChat)

	if w := postChat(r, `{"message":"hi"}`, map[string]string{identity.UserIDHeader: "alice"}); w.Code != http.StatusOK {
		t.Fatalf("chat -> %d", w.Code)
	}
	if gotUser != "alice" {
		t.Fatalf("header identity expected, got %q", gotUser)
	}
}

func TestPostChat_ErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
		code string
	}{
		{services.ErrConversationNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrEmptyMessage, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrTooLong, http.StatusBadRequest, ErrCodeBadRequest},
		{context.DeadlineExceeded, http.StatusInternalServerError, ErrCodeChatFailed},
	}
	for _, tc := range cases {
		svc := stubChatSvc{
			process: func(context.Context, string, string, string, string, string) (*services.ChatResult, error) {
				return nil, tc.err
			},
		}
		h := newStubHandlers(svc)
		r := gin.New()
		r.POST("/chat", h.PostChat)

		w := postChat(r, `{"conversation_id":"nope","message":"hi"}`, nil)
		if w.Code != tc.want {
			t.Fatalf("%v -> %d, want %d", tc.err, w.Code, tc.want)
		}
		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if body.Code != tc.code {
			t.Fatalf("%v -> code %q, want %q", tc.err, body.Code, tc.code)
		}
	}
}

func TestListConversationMessages_PageAndETag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlersDB(t)
	ctx := context.Background()

	if _, err := repo.GetOrCreateUser(ctx, db, "u1", "u1@test.local"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	conv, err := repo.CreateConversation(ctx, db, "u1")
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	for _, content := range []string{"one", "two", "three"} {
		if _, err := repo.CreateMessage(ctx, db, conv.ID, domain.RoleUser, content); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	svc := &services.ChatService{DB: db}
	h := New(svc, stubPlanSvc{}, stubPlanSvc{}, stubLogSvc{}, stubLogSvc{}, stubStateSvc{}, identity.NewStatic())
	r := gin.New()
	r.GET("/chat/conversations/:id/messages", h.ListConversationMessages)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/conversations/"+conv.ID+"/messages?page=1&page_size=2", nil)
	req.Header.Set(identity.UserIDHeader, "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}

	var out ListMessagesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(out.Messages) != 2 || out.Messages[0].Content != "one" || out.Messages[1].Content != "two" {
		t.Fatalf("creation order expected: %+v", out.Messages)
	}
	if out.Pagination.Total != 3 || !out.Pagination.HasNext {
		t.Fatalf("pagination: %+v", out.Pagination)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("ETag expected")
	}

	// Conditional re-fetch returns 304.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/chat/conversations/"+conv.ID+"/messages", nil)
	req.Header.Set(identity.UserIDHeader, "u1")
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional -> %d", w.Code)
	}
}

func TestListConversationMessages_UnknownConversation404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlersDB(t)

	svc := &services.ChatService{DB: db}
	h := New(svc, stubPlanSvc{}, stubPlanSvc{}, stubLogSvc{}, stubLogSvc{}, stubStateSvc{}, identity.NewStatic())
	r := gin.New()
	r.GET("/chat/conversations/:id/messages", h.ListConversationMessages)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/chat/conversations/nope/messages", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown conversation -> %d", w.Code)
	}
}
