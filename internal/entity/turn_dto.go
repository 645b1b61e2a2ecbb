package entity

// TurnRequest is the inbound payload for both /query and /stream.
// An empty ConversationID starts a new conversation.
type TurnRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// TurnResult is the outcome of one successful question/answer exchange.
type TurnResult struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversation_id"`
}

type StreamEventType string

const (
	StreamEventToken StreamEventType = "token"
	StreamEventDone  StreamEventType = "done"
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one outward event of a streamed turn. A stream is zero or
// more token events followed by exactly one done event, or by exactly one
// error event when generation fails mid-stream. The concatenation of all
// token fields equals the done event's answer.
type StreamEvent struct {
	Type           StreamEventType `json:"type"`
	Token          string          `json:"token,omitempty"`
	Answer         string          `json:"answer,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Error          string          `json:"error,omitempty"`
}

func NewTokenEvent(delta string) StreamEvent {
	return StreamEvent{Type: StreamEventToken, Token: delta}
}

func NewDoneEvent(answer, conversationID string) StreamEvent {
	return StreamEvent{Type: StreamEventDone, Answer: answer, ConversationID: conversationID}
}

func NewErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: StreamEventError, Error: message}
}
