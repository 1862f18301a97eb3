// Package services – ChatService
//
// This file implements ChatService, the orchestrator of the conversation
// state machine. It resolves the user and conversation, persists the
// inbound message, applies any client-side agent override, short-circuits
// pending log confirmations, routes the message to the agent owning the
// conversation, runs the transition loop (persisting each state change
// before fetching the next greeting), and persists the final assistant
// reply. Exactly one user and one assistant message are appended per turn.
//
// Observability: ProcessMessage is OpenTelemetry-instrumented; spans carry
// conversation/user identifiers and the initial and final agent states.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/agents"
	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
	"github.com/fitnesse/go-fitness-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// confirmationMarker is the phrase a specialist embeds in a reply when it
// wants the user to confirm a parsed log entry. Its presence in the previous
// assistant turn arms the confirmation short-circuit.
const confirmationMarker = "reply *yes* to save"

// maxTransitionHops bounds the greeting chain so two agents that keep
// handing off to each other cannot loop forever.
const maxTransitionHops = 5

// LogRecorder parses a free-text description and persists it as a log
// entry. Implemented by MealLogService and WorkoutLogService.
type LogRecorder interface {
	LogFromText(ctx context.Context, userID, text string) (*domain.Log, error)
}

// ChatResult is what one chat turn produces.
type ChatResult struct {
	ConversationID   string
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
	Metadata         agents.Metadata
}

// ChatService orchestrates one chat turn end to end.
type ChatService struct {
	DB     *gorm.DB
	Router *agents.Router
	LLM    llm.Client

	// MealLogs and WorkoutLogs back the confirmation short-circuit.
	MealLogs    LogRecorder
	WorkoutLogs LogRecorder

	// HistoryWindow is how many prior messages agents see.
	HistoryWindow int
	// MaxMessageRunes guards against oversized inputs (0 disables).
	MaxMessageRunes int

	// Per-conversation locking keeps concurrent turns on the same
	// conversation serialized so the message log interleaves cleanly.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type confirmationVerdict struct {
	Confirmed bool `json:"confirmed"`
}

// ProcessMessage runs one turn of the conversation state machine.
// agentOverride, when it names a valid agent type, moves the conversation
// there before routing; invalid values are silently ignored.
func (s *ChatService) ProcessMessage(ctx context.Context, userID, email, conversationID, message, agentOverride string) (*ChatResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "ProcessMessage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.id", conversationID),
		),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}

	if _, err := repo.GetOrCreateUser(ctx, s.DB, userID, email); err != nil {
		return nil, err
	}

	conv, err := repo.GetOrCreateConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("agent.initial", conv.AgentType.String()))

	unlock := s.lock(conv.ID)
	defer unlock()

	userMsg, err := repo.CreateMessage(ctx, s.DB, conv.ID, domain.RoleUser, message)
	if err != nil {
		return nil, err
	}

	// Client-side override: valid values move the state before routing,
	// anything else is a no-op.
	if agentOverride != "" {
		if target, ok := domain.ParseAgentType(agentOverride); ok && target != conv.AgentType {
			if err := repo.UpdateAgentType(ctx, s.DB, conv.ID, target); err != nil {
				return nil, err
			}
			conv.AgentType = target
		}
	}

	history, err := repo.ListMessages(ctx, s.DB, conv.ID, 0)
	if err != nil {
		return nil, err
	}

	if done, result, err := s.tryConfirmation(ctx, conv, userMsg, history); err != nil {
		return nil, err
	} else if done {
		return result, nil
	}

	// history includes the message just persisted; agents receive it
	// separately, so the window excludes the final entry.
	prior := agents.Window(toLLMHistory(history[:len(history)-1]), s.HistoryWindow)

	agent := s.Router.Get(conv.AgentType)
	resp, err := agent.Process(ctx, conv.UserID, message, prior)
	if err != nil {
		return nil, err
	}

	content, metadata, err := s.runTransitions(ctx, conv, resp)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("agent.final", conv.AgentType.String()))

	assistantMsg, err := repo.CreateMessage(ctx, s.DB, conv.ID, domain.RoleAssistant, content)
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		ConversationID:   conv.ID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Metadata:         metadata,
	}, nil
}

// runTransitions applies the agent's transition chain. Each hop persists
// the new agent type BEFORE fetching the greeting, so a crash mid-chain
// leaves the conversation in the state that was already announced. Greeting
// content is appended to the accumulated reply; greeting metadata wins on
// merge; a greeting may itself request the next transition.
func (s *ChatService) runTransitions(ctx context.Context, conv *domain.Conversation, resp agents.Response) (string, agents.Metadata, error) {
	content := resp.Content
	metadata := resp.Metadata
	transition := resp.Transition

	for hops := 0; transition != nil && hops < maxTransitionHops; hops++ {
		if err := repo.UpdateAgentType(ctx, s.DB, conv.ID, transition.Target); err != nil {
			return "", agents.Metadata{}, err
		}
		conv.AgentType = transition.Target

		if !transition.GetGreeting {
			break
		}

		greeting, err := s.Router.Get(transition.Target).Greeting(ctx, conv.UserID, transition.Context)
		if err != nil {
			return "", agents.Metadata{}, err
		}
		switch {
		case content == "":
			content = greeting.Content
		case greeting.Content != "":
			content = content + "\n\n" + greeting.Content
		}
		metadata = metadata.Merge(greeting.Metadata)
		transition = greeting.Transition
	}

	metadata.AgentType = conv.AgentType
	return content, metadata, nil
}

// tryConfirmation handles the "reply yes to save" flow. It fires only when
// the conversation sits with a specialist, the last three messages form a
// user/assistant/user pattern, and the assistant turn carried the
// confirmation marker. A low-temperature classification decides whether the
// current message is a yes; anything else falls through to normal routing.
func (s *ChatService) tryConfirmation(ctx context.Context, conv *domain.Conversation, userMsg *domain.Message, history []domain.Message) (bool, *ChatResult, error) {
	recorder := s.logRecorderFor(conv.AgentType)
	if recorder == nil {
		return false, nil, nil
	}
	n := len(history)
	if n < 3 {
		return false, nil, nil
	}
	prevUser, assistant, current := history[n-3], history[n-2], history[n-1]
	if current.Role != domain.RoleUser || assistant.Role != domain.RoleAssistant || prevUser.Role != domain.RoleUser {
		return false, nil, nil
	}
	if !strings.Contains(strings.ToLower(assistant.Content), confirmationMarker) {
		return false, nil, nil
	}

	kind := "meal"
	if conv.AgentType == domain.AgentTrainer {
		kind = "workout"
	}
	// The classifier sees the question it is judging the answer to, not the
	// bare reply: "sure" only reads as a yes next to the prompt that asked.
	input := fmt.Sprintf("The assistant asked the user to confirm saving a %s log:\n%q\n\nThe user replied:\n%q",
		kind, assistant.Content, current.Content)
	verdict, err := llm.GenerateStructured[confirmationVerdict](ctx, s.LLM, llm.Request{
		SystemPrompt: "Decide whether the user's reply confirms saving the logged entry.",
		Messages:     []llm.Message{{Role: domain.RoleUser, Content: input}},
		Temperature:  0.1,
		MaxTokens:    64,
	})
	if err != nil || !verdict.Confirmed {
		// Unclassifiable or negative: let the specialist handle the turn.
		return false, nil, nil
	}

	var content string
	metadata := agents.Metadata{AgentType: conv.AgentType}
	entry, err := recorder.LogFromText(ctx, conv.UserID, prevUser.Content)
	if err != nil {
		content = fmt.Sprintf("Something went wrong saving that: %v. Try describing it again.", err)
	} else {
		content = "Saved! Anything else you'd like to log or ask?"
		metadata.LogSaved = true
		metadata.LogID = entry.ID
	}

	assistantMsg, err := repo.CreateMessage(ctx, s.DB, conv.ID, domain.RoleAssistant, content)
	if err != nil {
		return false, nil, err
	}
	return true, &ChatResult{
		ConversationID:   conv.ID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Metadata:         metadata,
	}, nil
}

func (s *ChatService) logRecorderFor(t domain.AgentType) LogRecorder {
	switch t {
	case domain.AgentNutritionist:
		return s.MealLogs
	case domain.AgentTrainer:
		return s.WorkoutLogs
	}
	return nil
}

// lock serializes turns per conversation id and returns the unlock func.
func (s *ChatService) lock(conversationID string) func() {
	s.locksMu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	mu, ok := s.locks[conversationID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[conversationID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func toLLMHistory(msgs []domain.Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// ListConversationMessages returns a page of a conversation's message log
// with the total count, verifying ownership first.
func (s *ChatService) ListConversationMessages(ctx context.Context, userID, conversationID string, offset, limit int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "ListConversationMessages",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.id", conversationID),
			attribute.Int("page.offset", offset),
			attribute.Int("page.limit", limit),
		),
	)
	defer span.End()

	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrConversationNotFound
		}
		return nil, 0, err
	}
	total, err := repo.CountMessages(ctx, s.DB, conversationID)
	if err != nil {
		return nil, 0, err
	}
	msgs, err := repo.ListMessagesPage(ctx, s.DB, conversationID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}
