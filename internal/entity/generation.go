package entity

type GenerationRequest struct {
	Model           string    `json:"model"`
	Messages        []Message `json:"messages"`
	MaxTokens       int       `json:"max_tokens"`
	ReasoningEffort string    `json:"reasoning_effort"`
}

type GenerationResponse struct {
	Answer string `json:"answer"`
}

type StreamChunkType string

// Wire-level event types on the generation service's stream endpoint.
const (
	StreamChunkDelta StreamChunkType = "delta"
	StreamChunkDone  StreamChunkType = "done"
	StreamChunkError StreamChunkType = "error"
)

// StreamChunk is one provider-side event of an incremental generation call.
type StreamChunk struct {
	Type  StreamChunkType `json:"type"`
	Delta string          `json:"delta,omitempty"`
	Error string          `json:"error,omitempty"`
}

// GenerationStream is a finite, non-restartable sequence of text deltas from
// an incremental generation call. Recv returns io.EOF after the provider
// signals completion and a non-EOF error when the stream fails mid-sequence.
// Close releases the provider-side handle and must always be called.
type GenerationStream interface {
	Recv() (string, error)
	Close() error
}
