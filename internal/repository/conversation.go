package repository

import (
	"context"

	"github.com/sightlabs/qa-backend/internal/entity"
)

// ConversationRepository owns all conversation state. Conversations live for
// the process lifetime; there is no eviction policy (known limitation, not a
// defect to paper over).
type ConversationRepository interface {
	// Create mints a new conversation seeded with one system message.
	Create(ctx context.Context, systemInstructions string) (*entity.Conversation, error)

	// Get returns a snapshot of the conversation, or ErrConversationNotFound.
	Get(ctx context.Context, id string) (*entity.Conversation, error)

	// Append atomically appends messages to the conversation. Appends on the
	// same conversation are serialized; distinct conversations do not block
	// each other.
	Append(ctx context.Context, id string, messages ...entity.Message) error
}
