package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/sightlabs/qa-backend/internal/entity"
)

// conversationRecord pairs a conversation with its append lock. The backing
// cache is safe for concurrent lookups on its own; the per-record mutex is
// what serializes appends within one conversation.
type conversationRecord struct {
	mu           sync.Mutex
	conversation entity.Conversation
}

// ConversationMemory is an in-process ConversationRepository backed by an
// injected go-cache instance.
type ConversationMemory struct {
	store *cache.Cache
}

// NewConversationMemory creates a conversation repository on top of the given
// backing cache. The caller decides the expiration policy; the service wires
// a cache with NoExpiration.
func NewConversationMemory(store *cache.Cache) *ConversationMemory {
	return &ConversationMemory{store: store}
}

func (r *ConversationMemory) Create(ctx context.Context, systemInstructions string) (*entity.Conversation, error) {
	conv := entity.Conversation{
		ID: uuid.New().String(),
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: systemInstructions},
		},
		CreatedAt: time.Now().UTC(),
	}

	r.store.Set(conv.ID, &conversationRecord{conversation: conv}, cache.NoExpiration)

	return snapshot(&conv), nil
}

func (r *ConversationMemory) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return snapshot(&rec.conversation), nil
}

func (r *ConversationMemory) Append(ctx context.Context, id string, messages ...entity.Message) error {
	for _, msg := range messages {
		if err := msg.Role.Validate(); err != nil {
			return fmt.Errorf("%w: %s", entity.ErrInvalidParameter, err)
		}
	}

	rec, err := r.record(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.conversation.Messages = append(rec.conversation.Messages, messages...)

	return nil
}

func (r *ConversationMemory) record(id string) (*conversationRecord, error) {
	val, found := r.store.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", entity.ErrConversationNotFound, id)
	}

	rec, ok := val.(*conversationRecord)
	if !ok {
		return nil, fmt.Errorf("unexpected store entry for conversation %s", id)
	}

	return rec, nil
}

// snapshot copies the conversation so callers never share the live slice.
func snapshot(conv *entity.Conversation) *entity.Conversation {
	cp := *conv
	cp.Messages = make([]entity.Message, len(conv.Messages))
	copy(cp.Messages, conv.Messages)
	return &cp
}
