package model

// HandoffMarker is the literal token the research stage emits when it wants
// the computation stage to run. Routing is keyed on this single sentinel
// because the stages are driven by small models that cannot be trusted with
// free-form control flow.
const HandoffMarker = "NEED_MATH_CALCULATION"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversational turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Stage is the control tag the routing workflow threads between stages.
type Stage string

const (
	StageResearch Stage = "research"
	StageCompute  Stage = "compute"
	StageDone     Stage = "done"
)

// ConversationState carries the append-only message history plus the control
// tag through the routing workflow. One state per session; never shared.
type ConversationState struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	Next      Stage     `json:"next"`
}

// NewConversation creates a fresh state for a user query, positioned at the
// research stage.
func NewConversation(sessionID, query string) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		Messages:  []Message{{Role: RoleUser, Content: query}},
		Next:      StageResearch,
	}
}

// ResumeConversation creates a state carrying prior history plus a new user
// query, positioned at the research stage.
func ResumeConversation(sessionID string, history []Message, query string) *ConversationState {
	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: query})
	return &ConversationState{
		SessionID: sessionID,
		Messages:  msgs,
		Next:      StageResearch,
	}
}

// Append adds a turn to the history.
func (s *ConversationState) Append(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Last returns the most recent message, or a zero Message when empty.
func (s *ConversationState) Last() Message {
	if len(s.Messages) == 0 {
		return Message{}
	}
	return s.Messages[len(s.Messages)-1]
}
