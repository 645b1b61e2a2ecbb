package turn

import (
	"context"

	"github.com/sightlabs/qa-backend/internal/entity"
)

type SearchConnector interface {
	Search(ctx context.Context, req *entity.SearchRequest) ([]entity.RetrievedPassage, error)
}

type GenerationConnector interface {
	Complete(ctx context.Context, req *entity.GenerationRequest) (string, error)
	Stream(ctx context.Context, req *entity.GenerationRequest) (entity.GenerationStream, error)
}
