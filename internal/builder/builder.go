package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/api"
	qaapi "github.com/sightlabs/qa-backend/internal/api/qa"
	"github.com/sightlabs/qa-backend/internal/config"
	"github.com/sightlabs/qa-backend/internal/integration/generation"
	"github.com/sightlabs/qa-backend/internal/integration/search"
	"github.com/sightlabs/qa-backend/internal/pkg/logger"
	"github.com/sightlabs/qa-backend/internal/pkg/validator"
	"github.com/sightlabs/qa-backend/internal/repository"
	"github.com/sightlabs/qa-backend/internal/usecase/turn"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Conversation state lives for the process lifetime; the backing cache
	// is created with no expiration.
	store := cache.New(cache.NoExpiration, 0)
	conversations := repository.NewConversationMemory(store)
	log.Info("Conversation store initialized")

	// Initialize external service connectors (with mock support)
	var searchConn turn.SearchConnector
	var generationConn turn.GenerationConnector

	if cfg.EnableMocks {
		log.Info("Using mock connectors for external services")
		searchConn = search.NewMockConnector(log)
		generationConn = generation.NewMockConnector(log)
	} else {
		log.Info("Using real connectors for external services")
		searchConn = search.NewConnector(cfg.SearchConnectorCfg, log)
		generationConn = generation.NewConnector(cfg.GenerationConnectorCfg, log)
	}

	if err := probeSearchService(ctx, searchConn, cfg, log); err != nil {
		return nil, fmt.Errorf("search service readiness probe: %w", err)
	}

	turnUC := turn.NewUsecase(
		conversations,
		searchConn,
		generationConn,
		turn.Settings{
			Model:              cfg.Model,
			MaxTokens:          cfg.MaxTokens,
			ReasoningEffort:    cfg.ReasoningEffort,
			EmbedModel:         cfg.EmbedModel,
			TopK:               cfg.TopK,
			MaxCharsPerContent: cfg.MaxCharsPerContent,
			VectorStoreID:      cfg.VectorStoreID,
			SystemInstructions: cfg.SystemInstructions,
		},
		log,
	)
	log.Info("Use cases initialized")

	qaHandler := qaapi.NewHandler(turnUC, validator.NewValidator(cfg.MaxQuestionChars), cfg)
	router := api.SetupRouter(qaHandler, log)
	log.Info("HTTP router configured")

	server := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays zero: it would cut off long-lived event streams.
		IdleTimeout: 60 * time.Second,
	}

	log.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		logger: log,
	}, nil
}
