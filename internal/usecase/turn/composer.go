package turn

import (
	"fmt"
	"strings"

	"github.com/sightlabs/qa-backend/internal/entity"
)

const userTurnTemplate = "Answer the question using only the sources below.\n\nSources:\n%s\n\nQuestion: %s"

// BuildContextBlock concatenates retrieved passages, in service order, into
// one numbered context block. Each passage is cut at maxCharsPerContent; the
// cutoff is a hard one, no summarization.
func BuildContextBlock(passages []entity.RetrievedPassage, maxCharsPerContent int) string {
	var b strings.Builder
	for i, passage := range passages {
		content := passage.Content
		if len(content) > maxCharsPerContent {
			content = content[:maxCharsPerContent]
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, content)
	}
	return b.String()
}

// ComposeTurn builds the message sequence for one generation call: the
// conversation history, in order, plus one user message embedding the
// context block and the question. It never mutates the history slice.
func ComposeTurn(history []entity.Message, question, contextBlock string) []entity.Message {
	messages := make([]entity.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, entity.Message{
		Role:    entity.RoleUser,
		Content: fmt.Sprintf(userTurnTemplate, contextBlock, question),
	})
	return messages
}
