package qa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/config"
	"github.com/sightlabs/qa-backend/internal/entity"
	"github.com/sightlabs/qa-backend/internal/pkg/logger"
	"github.com/sightlabs/qa-backend/internal/pkg/response"
	"github.com/sightlabs/qa-backend/internal/pkg/validator"
)

type Handler struct {
	usecase   TurnUsecase
	validator *validator.Validator
	cfg       *config.Config
}

func NewHandler(
	usecase TurnUsecase,
	validator *validator.Validator,
	cfg *config.Config,
) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
		cfg:       cfg,
	}
}

// Query handles POST /query - answer one turn in blocking mode
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	req, ok := h.decodeTurnRequest(ctx, w, r)
	if !ok {
		return
	}

	ctxzap.Info(ctx, "handling query",
		zap.String("conversation_id", req.ConversationID),
		zap.Int("question_length", len(req.Question)),
	)

	result, err := h.usecase.Ask(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, result)
}

// Stream handles POST /stream - answer one turn as a server-sent event stream
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Stream")

	req, ok := h.decodeTurnRequest(ctx, w, r)
	if !ok {
		return
	}

	ctxzap.Info(ctx, "handling stream query",
		zap.String("conversation_id", req.ConversationID),
		zap.Int("question_length", len(req.Question)),
	)

	// Retrieval and composition run before the stream opens, so their
	// failures are still plain JSON errors with a proper status code.
	stream, err := h.usecase.AskStream(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}
	defer stream.Close()

	sse, err := newSSEWriter(w)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	for {
		event, err := stream.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			ctxzap.Error(ctx, "generation stream failed", zap.Error(err))
			// Terminal error indication instead of a fabricated done event.
			if writeErr := sse.WriteEvent(entity.NewErrorEvent("generation failed")); writeErr != nil {
				ctxzap.Debug(ctx, "client gone before error event", zap.Error(writeErr))
			}
			return
		}

		if err := sse.WriteEvent(event); err != nil {
			// Client disconnected; stop consuming deltas and release the
			// provider stream via the deferred Close.
			ctxzap.Info(ctx, "client disconnected mid-stream", zap.Error(err))
			return
		}
	}
}

// Info handles GET /info - expose the active configuration for debugging
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]any{
		"model":                 h.cfg.Model,
		"max_tokens":            h.cfg.MaxTokens,
		"reasoning_effort":      h.cfg.ReasoningEffort,
		"embed_model":           h.cfg.EmbedModel,
		"top_k":                 h.cfg.TopK,
		"max_chars_per_content": h.cfg.MaxCharsPerContent,
		"system_instructions":   h.cfg.SystemInstructions,
	})
}

func (h *Handler) decodeTurnRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (*entity.TurnRequest, bool) {
	var req entity.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if err := h.validator.ValidateTurnRequest(&req); err != nil {
		ctxzap.Error(ctx, "failed to validate request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return &req, true
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "turn failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrConversationNotFound):
		response.Error(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrRetrievalUnavailable):
		response.Error(w, http.StatusServiceUnavailable, "retrieval service unavailable")
	case errors.Is(err, entity.ErrGenerationFailed):
		response.Error(w, http.StatusBadGateway, "generation failed")
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
