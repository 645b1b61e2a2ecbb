package entity

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Validate() error {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return nil
	default:
		return fmt.Errorf("unknown message role: %s", r)
	}
}

// Message is a single role-tagged entry in a conversation.
// Messages are immutable once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is one dialogue thread. The first message is always the
// configured system instructions; history grows by exactly one user and one
// assistant message per successful turn.
type Conversation struct {
	ID        string    `json:"conversation_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// RetrievedPassage is one search hit, scoped to a single request.
type RetrievedPassage struct {
	Content string
	Source  string
	Score   float64
	Rank    int
}
