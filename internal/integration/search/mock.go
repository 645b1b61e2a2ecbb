package search

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/entity"
)

// MockConnector is a canned search backend for local runs without the
// vector-store service.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Search(ctx context.Context, req *entity.SearchRequest) ([]entity.RetrievedPassage, error) {
	ctxzap.Info(ctx, "[MOCK] searching vector store",
		zap.String("query", req.Query),
		zap.Int("top_k", req.TopK),
	)

	passages := []entity.RetrievedPassage{
		{
			Content: "The SIGHT platform indexes project documentation into a managed vector store and serves grounded answers over it.",
			Source:  "overview.md",
			Score:   0.91,
			Rank:    1,
		},
		{
			Content: "Questions are answered strictly from retrieved passages; when the index has no relevant material the assistant says so.",
			Source:  "faq.md",
			Score:   0.84,
			Rank:    2,
		},
	}

	if req.TopK < len(passages) {
		passages = passages[:req.TopK]
	}

	return passages, nil
}

func (m *MockConnector) Ping(ctx context.Context) error {
	ctxzap.Info(ctx, "[MOCK] search service health check")
	return nil
}
