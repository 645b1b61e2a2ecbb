package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/entity"
	"github.com/sightlabs/qa-backend/internal/repository"
)

type fakeSearch struct {
	passages []entity.RetrievedPassage
	err      error
	gotReq   *entity.SearchRequest
}

func (f *fakeSearch) Search(_ context.Context, req *entity.SearchRequest) ([]entity.RetrievedPassage, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type fakeGeneration struct {
	answer    string
	err       error
	stream    entity.GenerationStream
	streamErr error
	gotReq    *entity.GenerationRequest
}

func (f *fakeGeneration) Complete(_ context.Context, req *entity.GenerationRequest) (string, error) {
	f.gotReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGeneration) Stream(_ context.Context, req *entity.GenerationRequest) (entity.GenerationStream, error) {
	f.gotReq = req
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

type fakeStream struct {
	deltas []string
	err    error
	next   int
	closed bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.next < len(s.deltas) {
		delta := s.deltas[s.next]
		s.next++
		return delta, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

const testInstructions = "Answer only from the provided sources."

func testSettings() Settings {
	return Settings{
		Model:              "answer-model-1",
		MaxTokens:          512,
		ReasoningEffort:    "low",
		EmbedModel:         "embed-model-1",
		TopK:               5,
		MaxCharsPerContent: 200,
		VectorStoreID:      "vs_docs",
		SystemInstructions: testInstructions,
	}
}

func newTestUsecase(t *testing.T, searchConn SearchConnector, generationConn GenerationConnector) (*Usecase, repository.ConversationRepository) {
	t.Helper()
	repo := repository.NewConversationMemory(cache.New(cache.NoExpiration, 0))
	uc := NewUsecase(repo, searchConn, generationConn, testSettings(), zap.NewNop())
	return uc, repo
}

func TestAsk_NewConversation(t *testing.T) {
	searchConn := &fakeSearch{passages: []entity.RetrievedPassage{{Content: "passage one", Rank: 1}}}
	generationConn := &fakeGeneration{answer: "pong"}
	uc, repo := newTestUsecase(t, searchConn, generationConn)

	result, err := uc.Ask(context.Background(), &entity.TurnRequest{Question: "ping"})
	require.NoError(t, err)
	require.NotEmpty(t, result.ConversationID)
	assert.Equal(t, "pong", result.Answer)

	conv, err := repo.Get(context.Background(), result.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, entity.RoleSystem, conv.Messages[0].Role)
	assert.Equal(t, testInstructions, conv.Messages[0].Content)
	assert.Equal(t, entity.RoleUser, conv.Messages[1].Role)
	assert.Contains(t, conv.Messages[1].Content, "ping")
	assert.Contains(t, conv.Messages[1].Content, "passage one")
	assert.Equal(t, entity.RoleAssistant, conv.Messages[2].Role)
	assert.Equal(t, "pong", conv.Messages[2].Content)
}

func TestAsk_PassesConfiguredParameters(t *testing.T) {
	searchConn := &fakeSearch{}
	generationConn := &fakeGeneration{answer: "answer"}
	uc, _ := newTestUsecase(t, searchConn, generationConn)

	_, err := uc.Ask(context.Background(), &entity.TurnRequest{Question: "q"})
	require.NoError(t, err)

	require.NotNil(t, searchConn.gotReq)
	assert.Equal(t, "vs_docs", searchConn.gotReq.VectorStoreID)
	assert.Equal(t, "embed-model-1", searchConn.gotReq.EmbeddingModel)
	assert.Equal(t, 5, searchConn.gotReq.TopK)
	assert.Equal(t, "q", searchConn.gotReq.Query)

	require.NotNil(t, generationConn.gotReq)
	assert.Equal(t, "answer-model-1", generationConn.gotReq.Model)
	assert.Equal(t, 512, generationConn.gotReq.MaxTokens)
	assert.Equal(t, "low", generationConn.gotReq.ReasoningEffort)
}

func TestAsk_MultiTurnGrowsByTwo(t *testing.T) {
	uc, repo := newTestUsecase(t, &fakeSearch{}, &fakeGeneration{answer: "a"})

	first, err := uc.Ask(context.Background(), &entity.TurnRequest{Question: "one"})
	require.NoError(t, err)

	second, err := uc.Ask(context.Background(), &entity.TurnRequest{
		Question:       "two",
		ConversationID: first.ConversationID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	conv, err := repo.Get(context.Background(), first.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 5)
	assert.Equal(t, entity.RoleUser, conv.Messages[3].Role)
	assert.Contains(t, conv.Messages[3].Content, "two")
	assert.Equal(t, entity.RoleAssistant, conv.Messages[4].Role)
}

func TestAsk_UnknownConversation(t *testing.T) {
	uc, _ := newTestUsecase(t, &fakeSearch{}, &fakeGeneration{answer: "a"})

	_, err := uc.Ask(context.Background(), &entity.TurnRequest{
		Question:       "q",
		ConversationID: "no-such-conversation",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)
}

func TestAsk_RetrievalFailure(t *testing.T) {
	searchConn := &fakeSearch{err: fmt.Errorf("connection refused")}
	uc, repo := newTestUsecase(t, searchConn, &fakeGeneration{answer: "a"})

	conv, err := repo.Create(context.Background(), testInstructions)
	require.NoError(t, err)

	_, err = uc.Ask(context.Background(), &entity.TurnRequest{
		Question:       "q",
		ConversationID: conv.ID,
	})
	assert.ErrorIs(t, err, entity.ErrRetrievalUnavailable)

	after, err := repo.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, after.Messages, 1)
}

func TestAsk_GenerationFailureLeavesHistoryUntouched(t *testing.T) {
	generationConn := &fakeGeneration{err: fmt.Errorf("upstream 500")}
	uc, repo := newTestUsecase(t, &fakeSearch{}, generationConn)

	conv, err := repo.Create(context.Background(), testInstructions)
	require.NoError(t, err)

	_, err = uc.Ask(context.Background(), &entity.TurnRequest{
		Question:       "q",
		ConversationID: conv.ID,
	})
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)

	after, err := repo.Get(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Len(t, after.Messages, 1)
}

func TestAsk_EmptyResultSetProceedsToGeneration(t *testing.T) {
	searchConn := &fakeSearch{passages: []entity.RetrievedPassage{}}
	generationConn := &fakeGeneration{answer: "unsourced answer"}
	uc, _ := newTestUsecase(t, searchConn, generationConn)

	result, err := uc.Ask(context.Background(), &entity.TurnRequest{Question: "anything indexed?"})
	require.NoError(t, err)
	assert.Equal(t, "unsourced answer", result.Answer)

	require.NotNil(t, generationConn.gotReq)
	last := generationConn.gotReq.Messages[len(generationConn.gotReq.Messages)-1]
	assert.Contains(t, last.Content, "anything indexed?")
}

func TestAskStream_TokensThenDone(t *testing.T) {
	stream := &fakeStream{deltas: []string{"The ", "answer ", "is 4."}}
	generationConn := &fakeGeneration{stream: stream}
	uc, repo := newTestUsecase(t, &fakeSearch{}, generationConn)

	ts, err := uc.AskStream(context.Background(), &entity.TurnRequest{Question: "2+2?"})
	require.NoError(t, err)
	defer ts.Close()

	ctx := context.Background()
	var tokens []string
	var done *entity.StreamEvent
	for {
		event, err := ts.Recv(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		switch event.Type {
		case entity.StreamEventToken:
			tokens = append(tokens, event.Token)
		case entity.StreamEventDone:
			require.Nil(t, done, "done event must be emitted exactly once")
			ev := event
			done = &ev
		}
	}

	assert.Equal(t, []string{"The ", "answer ", "is 4."}, tokens)
	require.NotNil(t, done)
	assert.Equal(t, "The answer is 4.", done.Answer)
	assert.Equal(t, ts.ConversationID(), done.ConversationID)

	conv, err := repo.Get(context.Background(), ts.ConversationID())
	require.NoError(t, err)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "The answer is 4.", conv.Messages[2].Content)
}

func TestAskStream_FailureAfterDelta(t *testing.T) {
	stream := &fakeStream{deltas: []string{"partial "}, err: fmt.Errorf("stream reset")}
	generationConn := &fakeGeneration{stream: stream}
	uc, repo := newTestUsecase(t, &fakeSearch{}, generationConn)

	ts, err := uc.AskStream(context.Background(), &entity.TurnRequest{Question: "q"})
	require.NoError(t, err)
	defer ts.Close()

	ctx := context.Background()

	event, err := ts.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StreamEventToken, event.Type)
	assert.Equal(t, "partial ", event.Token)

	_, err = ts.Recv(ctx)
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)

	// Terminal: the failure is sticky, never followed by a done event.
	_, err = ts.Recv(ctx)
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)

	conv, err := repo.Get(context.Background(), ts.ConversationID())
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1, "no partial commit on failed stream")
}

func TestAskStream_EmptyStreamIsFailure(t *testing.T) {
	generationConn := &fakeGeneration{stream: &fakeStream{}}
	uc, repo := newTestUsecase(t, &fakeSearch{}, generationConn)

	ts, err := uc.AskStream(context.Background(), &entity.TurnRequest{Question: "q"})
	require.NoError(t, err)
	defer ts.Close()

	_, err = ts.Recv(context.Background())
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)

	conv, err := repo.Get(context.Background(), ts.ConversationID())
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1)
}

func TestAskStream_OpenFailure(t *testing.T) {
	generationConn := &fakeGeneration{streamErr: fmt.Errorf("dial timeout")}
	uc, _ := newTestUsecase(t, &fakeSearch{}, generationConn)

	_, err := uc.AskStream(context.Background(), &entity.TurnRequest{Question: "q"})
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)
}

func TestAskStream_CloseReleasesProviderStream(t *testing.T) {
	stream := &fakeStream{deltas: []string{"a", "b"}}
	uc, _ := newTestUsecase(t, &fakeSearch{}, &fakeGeneration{stream: stream})

	ts, err := uc.AskStream(context.Background(), &entity.TurnRequest{Question: "q"})
	require.NoError(t, err)

	// Client disconnects after the first token.
	_, err = ts.Recv(context.Background())
	require.NoError(t, err)
	require.NoError(t, ts.Close())

	assert.True(t, stream.closed)
}
