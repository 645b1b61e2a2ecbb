package generation

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/config"
	"github.com/sightlabs/qa-backend/internal/entity"
	"github.com/sightlabs/qa-backend/internal/integration/common"
	pkghttp "github.com/sightlabs/qa-backend/pkg/http"
)

type Connector struct {
	config    config.GenerationConnectorConfig
	connector *pkghttp.Connector
	// Separate client for the stream endpoint: the whole-request timeout is
	// disabled there, context cancellation bounds the stream instead.
	streamConnector *pkghttp.Connector
	logger          *zap.Logger
}

func NewConnector(
	cfg config.GenerationConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector:       common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		streamConnector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, pkghttp.WithRequestTimeout(0)),
		config:          cfg,
		logger:          logger,
	}
}

// Complete runs one blocking generation call and returns the full answer.
func (c *Connector) Complete(ctx context.Context, req *entity.GenerationRequest) (string, error) {
	ctxzap.Debug(ctx, "requesting completion",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)

	var resp entity.GenerationResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.CompleteEndpoint, req, &resp)
	if err != nil {
		return "", fmt.Errorf("generation completion: %w", err)
	}

	if strings.TrimSpace(resp.Answer) == "" {
		return "", fmt.Errorf("generation service returned an empty answer")
	}

	ctxzap.Debug(ctx, "completion received", zap.Int("answer_length", len(resp.Answer)))

	return resp.Answer, nil
}

// Stream opens an incremental generation call. The caller must Close the
// returned stream; cancelling ctx aborts it and releases the provider
// connection.
func (c *Connector) Stream(ctx context.Context, req *entity.GenerationRequest) (entity.GenerationStream, error) {
	ctxzap.Debug(ctx, "opening generation stream",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)

	events, err := c.streamConnector.DoStreamRequest(ctx, http.MethodPost, c.config.StreamEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("open generation stream: %w", err)
	}

	return &providerStream{events: events}, nil
}
