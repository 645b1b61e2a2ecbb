package turn

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/entity"
	"github.com/sightlabs/qa-backend/internal/repository"
)

// Settings are the per-process generation and retrieval parameters. They are
// validated at startup and immutable afterwards.
type Settings struct {
	Model              string
	MaxTokens          int
	ReasoningEffort    string
	EmbedModel         string
	TopK               int
	MaxCharsPerContent int
	VectorStoreID      string
	SystemInstructions string
}

// Usecase orchestrates one question/answer turn: retrieval, composition,
// generation, and the commit of the exchange into conversation history.
type Usecase struct {
	conversations  repository.ConversationRepository
	searchConn     SearchConnector
	generationConn GenerationConnector
	settings       Settings
	logger         *zap.Logger
}

func NewUsecase(
	conversations repository.ConversationRepository,
	searchConn SearchConnector,
	generationConn GenerationConnector,
	settings Settings,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		conversations:  conversations,
		searchConn:     searchConn,
		generationConn: generationConn,
		settings:       settings,
		logger:         logger,
	}
}

// Ask answers one turn in blocking mode. On success the user message and the
// assistant answer are appended to the conversation together; a failed turn
// leaves history untouched.
func (uc *Usecase) Ask(ctx context.Context, req *entity.TurnRequest) (*entity.TurnResult, error) {
	conv, err := uc.resolveConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	messages, userMessage, err := uc.composeTurn(ctx, conv, req.Question)
	if err != nil {
		return nil, err
	}

	answer, err := uc.generationConn.Complete(ctx, uc.generationRequest(messages))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrGenerationFailed, err)
	}

	if err := uc.conversations.Append(ctx, conv.ID, userMessage, entity.Message{
		Role:    entity.RoleAssistant,
		Content: answer,
	}); err != nil {
		return nil, fmt.Errorf("commit turn: %w", err)
	}

	ctxzap.Info(ctx, "turn completed",
		zap.String("conversation_id", conv.ID),
		zap.Int("answer_length", len(answer)),
	)

	return &entity.TurnResult{
		Answer:         answer,
		ConversationID: conv.ID,
	}, nil
}

// AskStream answers one turn in incremental mode. Retrieval and composition
// happen before the stream opens, so pre-generation failures surface as plain
// errors rather than mid-stream ones. The caller drives the returned
// TurnStream and must Close it.
func (uc *Usecase) AskStream(ctx context.Context, req *entity.TurnRequest) (*TurnStream, error) {
	conv, err := uc.resolveConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	messages, userMessage, err := uc.composeTurn(ctx, conv, req.Question)
	if err != nil {
		return nil, err
	}

	stream, err := uc.generationConn.Stream(ctx, uc.generationRequest(messages))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrGenerationFailed, err)
	}

	ctxzap.Info(ctx, "generation stream opened",
		zap.String("conversation_id", conv.ID),
	)

	return NewTurnStream(stream, uc.conversations, conv.ID, userMessage), nil
}

// resolveConversation loads the referenced conversation or creates a fresh
// one when no identifier was supplied. An unknown identifier is an error,
// never an implicit new conversation.
func (uc *Usecase) resolveConversation(ctx context.Context, conversationID string) (*entity.Conversation, error) {
	if conversationID == "" {
		conv, err := uc.conversations.Create(ctx, uc.settings.SystemInstructions)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		ctxzap.Info(ctx, "conversation created", zap.String("conversation_id", conv.ID))
		return conv, nil
	}

	conv, err := uc.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// composeTurn retrieves context for the question and builds the full message
// sequence plus the user message that will be committed on success.
func (uc *Usecase) composeTurn(ctx context.Context, conv *entity.Conversation, question string) ([]entity.Message, entity.Message, error) {
	passages, err := uc.searchConn.Search(ctx, &entity.SearchRequest{
		VectorStoreID:  uc.settings.VectorStoreID,
		Query:          question,
		EmbeddingModel: uc.settings.EmbedModel,
		TopK:           uc.settings.TopK,
	})
	if err != nil {
		// A transport failure must not degrade into an unguarded answer;
		// only a legitimate zero-hit result may produce empty context.
		return nil, entity.Message{}, fmt.Errorf("%w: %s", entity.ErrRetrievalUnavailable, err)
	}

	contextBlock := BuildContextBlock(passages, uc.settings.MaxCharsPerContent)

	ctxzap.Debug(ctx, "context retrieved",
		zap.Int("passage_count", len(passages)),
		zap.Int("context_length", len(contextBlock)),
	)

	messages := ComposeTurn(conv.Messages, question, contextBlock)
	return messages, messages[len(messages)-1], nil
}

func (uc *Usecase) generationRequest(messages []entity.Message) *entity.GenerationRequest {
	return &entity.GenerationRequest{
		Model:           uc.settings.Model,
		Messages:        messages,
		MaxTokens:       uc.settings.MaxTokens,
		ReasoningEffort: uc.settings.ReasoningEffort,
	}
}
