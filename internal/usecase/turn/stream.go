package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sightlabs/qa-backend/internal/entity"
	"github.com/sightlabs/qa-backend/internal/repository"
)

type streamState int

const (
	stateStreaming streamState = iota
	stateCompleted
	stateFailed
)

// TurnStream drives one incremental generation call to a terminal state.
// Deltas are only emitted while streaming; completion is reached exactly
// once and commits the accumulated answer, failure commits nothing.
type TurnStream struct {
	conversationID string
	userMessage    entity.Message
	stream         entity.GenerationStream
	conversations  repository.ConversationRepository

	answer strings.Builder
	state  streamState
	err    error
}

// NewTurnStream wraps a provider stream for one turn. Exposed for handler
// tests; production code obtains it through Usecase.AskStream.
func NewTurnStream(
	stream entity.GenerationStream,
	conversations repository.ConversationRepository,
	conversationID string,
	userMessage entity.Message,
) *TurnStream {
	return &TurnStream{
		conversationID: conversationID,
		userMessage:    userMessage,
		stream:         stream,
		conversations:  conversations,
	}
}

func (s *TurnStream) ConversationID() string {
	return s.conversationID
}

// Recv returns the next outward event: token events in provider arrival
// order, then exactly one done event carrying the committed answer, then
// io.EOF. A provider failure surfaces as ErrGenerationFailed and the
// conversation history stays untouched.
func (s *TurnStream) Recv(ctx context.Context) (entity.StreamEvent, error) {
	switch s.state {
	case stateCompleted:
		return entity.StreamEvent{}, io.EOF
	case stateFailed:
		return entity.StreamEvent{}, s.err
	}

	delta, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return s.complete(ctx)
	}
	if err != nil {
		return entity.StreamEvent{}, s.fail(fmt.Errorf("%w: %s", entity.ErrGenerationFailed, err))
	}

	s.answer.WriteString(delta)
	return entity.NewTokenEvent(delta), nil
}

func (s *TurnStream) complete(ctx context.Context) (entity.StreamEvent, error) {
	answer := s.answer.String()
	if strings.TrimSpace(answer) == "" {
		return entity.StreamEvent{}, s.fail(fmt.Errorf("%w: provider completed without output", entity.ErrGenerationFailed))
	}

	if err := s.conversations.Append(ctx, s.conversationID, s.userMessage, entity.Message{
		Role:    entity.RoleAssistant,
		Content: answer,
	}); err != nil {
		return entity.StreamEvent{}, s.fail(fmt.Errorf("commit turn: %w", err))
	}

	s.state = stateCompleted
	return entity.NewDoneEvent(answer, s.conversationID), nil
}

func (s *TurnStream) fail(err error) error {
	s.state = stateFailed
	s.err = err
	return err
}

// Close releases the provider-side stream handle. Safe to call after any
// terminal state and after cancellation.
func (s *TurnStream) Close() error {
	return s.stream.Close()
}
