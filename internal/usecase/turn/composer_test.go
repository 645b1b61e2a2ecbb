package turn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightlabs/qa-backend/internal/entity"
)

func TestBuildContextBlock_TruncatesLongPassages(t *testing.T) {
	long := strings.Repeat("a", 500)
	passages := []entity.RetrievedPassage{
		{Content: long, Rank: 1},
	}

	block := BuildContextBlock(passages, 100)

	assert.Equal(t, "[1] "+long[:100], block)
	assert.Contains(t, block, strings.Repeat("a", 100))
	assert.NotContains(t, block, strings.Repeat("a", 101))
}

func TestBuildContextBlock_ShortPassageUnmodified(t *testing.T) {
	passages := []entity.RetrievedPassage{
		{Content: "short passage", Rank: 1},
	}

	block := BuildContextBlock(passages, 100)

	assert.Equal(t, "[1] short passage", block)
}

func TestBuildContextBlock_PreservesServiceOrder(t *testing.T) {
	passages := []entity.RetrievedPassage{
		{Content: "first", Rank: 1},
		{Content: "second", Rank: 2},
		{Content: "third", Rank: 3},
	}

	block := BuildContextBlock(passages, 100)

	assert.Equal(t, "[1] first\n\n[2] second\n\n[3] third", block)
}

func TestBuildContextBlock_EmptyResultSet(t *testing.T) {
	assert.Empty(t, BuildContextBlock(nil, 100))
	assert.Empty(t, BuildContextBlock([]entity.RetrievedPassage{}, 100))
}

func TestComposeTurn_HistoryBeforeNewTurn(t *testing.T) {
	history := []entity.Message{
		{Role: entity.RoleSystem, Content: "instructions"},
		{Role: entity.RoleUser, Content: "earlier question"},
		{Role: entity.RoleAssistant, Content: "earlier answer"},
	}

	messages := ComposeTurn(history, "what now?", "[1] context passage")

	require.Len(t, messages, 4)
	assert.Equal(t, history, messages[:3])

	last := messages[3]
	assert.Equal(t, entity.RoleUser, last.Role)
	assert.Contains(t, last.Content, "what now?")
	assert.Contains(t, last.Content, "[1] context passage")
}

func TestComposeTurn_DoesNotMutateHistory(t *testing.T) {
	history := make([]entity.Message, 0, 4)
	history = append(history, entity.Message{Role: entity.RoleSystem, Content: "instructions"})

	ComposeTurn(history, "question", "context")

	require.Len(t, history, 1)
	assert.Equal(t, "instructions", history[0].Content)
}

func TestComposeTurn_EmptyContextStillComposes(t *testing.T) {
	messages := ComposeTurn(nil, "question", "")

	require.Len(t, messages, 1)
	assert.Equal(t, entity.RoleUser, messages[0].Role)
	assert.Contains(t, messages[0].Content, "question")
}
