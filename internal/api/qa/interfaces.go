package qa

import (
	"context"

	"github.com/sightlabs/qa-backend/internal/entity"
	"github.com/sightlabs/qa-backend/internal/usecase/turn"
)

type TurnUsecase interface {
	Ask(ctx context.Context, req *entity.TurnRequest) (*entity.TurnResult, error)
	AskStream(ctx context.Context, req *entity.TurnRequest) (*turn.TurnStream, error)
}
