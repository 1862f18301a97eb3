package domain

import "strings"

// AgentType identifies which conversational agent currently owns a
// conversation. It is the only persisted state-machine variable: every
// inbound chat message is routed to the agent named by the owning
// conversation's AgentType column.
type AgentType string

const (
	// AgentOnboarding collects profile and goal data from new users.
	AgentOnboarding AgentType = "onboarding"
	// AgentCoordination is the hub state users return to between specialists.
	AgentCoordination AgentType = "coordination"
	// AgentNutritionist handles meal plans and meal logging.
	AgentNutritionist AgentType = "nutritionist"
	// AgentTrainer handles workout plans and workout logging.
	AgentTrainer AgentType = "trainer"
	// AgentAnalytics is reserved for a future reporting agent. It is not
	// routable yet; the router resolves it to coordination.
	AgentAnalytics AgentType = "analytics"
)

// ParseAgentType maps a client-supplied tag to one of the routable agent
// types. The second return value is false for anything outside the known
// set, including the reserved "analytics" tag.
func ParseAgentType(s string) (AgentType, bool) {
	switch AgentType(strings.ToLower(strings.TrimSpace(s))) {
	case AgentOnboarding:
		return AgentOnboarding, true
	case AgentCoordination:
		return AgentCoordination, true
	case AgentNutritionist:
		return AgentNutritionist, true
	case AgentTrainer:
		return AgentTrainer, true
	}
	return "", false
}

// Routable reports whether t is one of the four agent types a conversation
// can be routed to.
func (t AgentType) Routable() bool {
	_, ok := ParseAgentType(string(t))
	return ok
}

// String returns the persisted enum value.
func (t AgentType) String() string { return string(t) }
