package search

import (
	"context"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/config"
	"github.com/sightlabs/qa-backend/internal/entity"
	"github.com/sightlabs/qa-backend/internal/integration/common"
	pkghttp "github.com/sightlabs/qa-backend/pkg/http"
)

type Connector struct {
	config    config.SearchConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.SearchConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Search runs one similarity search against the vector-store service and
// returns hits in service order. Zero hits is a valid outcome; a transport
// or provider error is not.
func (c *Connector) Search(ctx context.Context, req *entity.SearchRequest) ([]entity.RetrievedPassage, error) {
	ctxzap.Debug(ctx, "searching vector store",
		zap.String("vector_store_id", req.VectorStoreID),
		zap.Int("top_k", req.TopK),
	)

	var resp entity.SearchResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.SearchEndpoint, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("vector store search: %w", err)
	}

	passages := make([]entity.RetrievedPassage, 0, len(resp.Results))
	for i, hit := range resp.Results {
		passages = append(passages, entity.RetrievedPassage{
			Content: hit.Content,
			Source:  hit.Source,
			Score:   hit.Score,
			Rank:    i + 1,
		})
	}

	ctxzap.Debug(ctx, "vector store search finished", zap.Int("hit_count", len(passages)))

	return passages, nil
}

// Ping checks the search service health endpoint. Used by the startup
// readiness probe only.
func (c *Connector) Ping(ctx context.Context) error {
	if err := c.connector.DoRequest(ctx, http.MethodGet, c.config.HealthEndpoint, nil, nil); err != nil {
		return fmt.Errorf("search service health check: %w", err)
	}
	return nil
}
