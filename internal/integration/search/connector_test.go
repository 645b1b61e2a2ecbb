package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/config"
	"github.com/sightlabs/qa-backend/internal/entity"
)

func testSearchConfig(baseURL string) config.SearchConnectorConfig {
	return config.SearchConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			RequestTimeout:        5 * time.Second,
			ConnTimeout:           time.Second,
			KeepAlive:             time.Second,
			IdleConnTimeout:       time.Second,
			ResponseHeaderTimeout: time.Second,
			Url:                   baseURL,
		},
		SearchEndpoint: "/search",
		HealthEndpoint: "/health",
	}
}

func TestSearch_RanksHitsInServiceOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)

		var req entity.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "vs-docs", req.VectorStoreID)
		assert.Equal(t, "how do sensors pair", req.Query)
		assert.Equal(t, "embed-small", req.EmbeddingModel)
		assert.Equal(t, 3, req.TopK)

		json.NewEncoder(w).Encode(entity.SearchResponse{
			Results: []entity.SearchHit{
				{Content: "pairing guide", Source: "manual.pdf", Score: 0.91},
				{Content: "troubleshooting", Source: "faq.md", Score: 0.47},
			},
		})
	}))
	defer server.Close()

	conn := NewConnector(testSearchConfig(server.URL), zap.NewNop())

	passages, err := conn.Search(context.Background(), &entity.SearchRequest{
		VectorStoreID:  "vs-docs",
		Query:          "how do sensors pair",
		EmbeddingModel: "embed-small",
		TopK:           3,
	})

	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, entity.RetrievedPassage{Content: "pairing guide", Source: "manual.pdf", Score: 0.91, Rank: 1}, passages[0])
	assert.Equal(t, entity.RetrievedPassage{Content: "troubleshooting", Source: "faq.md", Score: 0.47, Rank: 2}, passages[1])
}

func TestSearch_EmptyResultSetIsValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.SearchResponse{})
	}))
	defer server.Close()

	conn := NewConnector(testSearchConfig(server.URL), zap.NewNop())

	passages, err := conn.Search(context.Background(), &entity.SearchRequest{Query: "nothing matches"})

	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestSearch_ServiceErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index rebuilding", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	conn := NewConnector(testSearchConfig(server.URL), zap.NewNop())

	_, err := conn.Search(context.Background(), &entity.SearchRequest{Query: "q"})

	require.Error(t, err)
	assert.ErrorContains(t, err, "vector store search")
}

func TestSearch_ConnectionFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	conn := NewConnector(testSearchConfig(server.URL), zap.NewNop())

	_, err := conn.Search(context.Background(), &entity.SearchRequest{Query: "q"})

	assert.Error(t, err)
}

func TestPing_HealthEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	conn := NewConnector(testSearchConfig(server.URL), zap.NewNop())

	require.NoError(t, conn.Ping(context.Background()))
	assert.Equal(t, "/health", gotPath)
}

func TestPing_UnhealthyService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "starting up", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	conn := NewConnector(testSearchConfig(server.URL), zap.NewNop())

	assert.ErrorContains(t, conn.Ping(context.Background()), "health check")
}
