// Package services implements the application layer: the chat orchestrator
// that drives the agent state machine, plan generation, meal/workout
// logging, and the bootstrap state snapshot. Services own business rules
// and transactions; repositories stay thin and agents stay stateless.
package services

import "errors"

// Sentinel errors mapped to HTTP status codes by the handlers.
var (
	// ErrEmptyMessage is returned when the chat message is blank.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrTooLong is returned when the chat message exceeds the rune limit.
	ErrTooLong = errors.New("message exceeds maximum length")

	// ErrConversationNotFound is returned when a supplied conversation id
	// does not exist or belongs to another user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNoActivePlan is returned when logging requires an active plan of
	// the matching type and the user has none.
	ErrNoActivePlan = errors.New("no active plan of the required type")

	// ErrPlanNotFound is returned when a requested plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrEmptyPlanData is returned when a plan update carries no payload.
	ErrEmptyPlanData = errors.New("plan data must not be empty")

	// ErrEmptyLogText is returned when a log description is blank.
	ErrEmptyLogText = errors.New("log text must not be empty")
)
