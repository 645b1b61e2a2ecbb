package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sightlabs/qa-backend/internal/entity"
	pkghttp "github.com/sightlabs/qa-backend/pkg/http"
)

// providerStream decodes the generation service's SSE payloads into text
// deltas. The service terminates every stream with an explicit done or error
// chunk; a connection that drops before either is a failed stream, never a
// completed one.
type providerStream struct {
	events *pkghttp.EventStream
	done   bool
}

func (s *providerStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for {
		payload, err := s.events.Recv()
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("generation stream ended without completion signal")
		}
		if err != nil {
			return "", fmt.Errorf("read generation stream: %w", err)
		}

		var chunk entity.StreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}

		switch chunk.Type {
		case entity.StreamChunkDelta:
			return chunk.Delta, nil
		case entity.StreamChunkDone:
			s.done = true
			return "", io.EOF
		case entity.StreamChunkError:
			return "", fmt.Errorf("generation service error: %s", chunk.Error)
		default:
			return "", fmt.Errorf("unknown stream chunk type: %s", chunk.Type)
		}
	}
}

func (s *providerStream) Close() error {
	return s.events.Close()
}
