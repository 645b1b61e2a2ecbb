package generation

import (
	"context"
	"io"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/sightlabs/qa-backend/internal/entity"
)

const mockAnswer = "This is a mock answer produced without calling the generation service. " +
	"It is grounded in nothing and should only appear in local development."

// MockConnector is a canned generation backend for local runs.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Complete(ctx context.Context, req *entity.GenerationRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating completion",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)
	return mockAnswer, nil
}

func (m *MockConnector) Stream(ctx context.Context, req *entity.GenerationRequest) (entity.GenerationStream, error) {
	ctxzap.Info(ctx, "[MOCK] opening generation stream",
		zap.String("model", req.Model),
	)

	words := strings.SplitAfter(mockAnswer, " ")
	return &mockStream{deltas: words}, nil
}

type mockStream struct {
	deltas []string
	next   int
}

func (s *mockStream) Recv() (string, error) {
	if s.next >= len(s.deltas) {
		return "", io.EOF
	}
	delta := s.deltas[s.next]
	s.next++
	return delta, nil
}

func (s *mockStream) Close() error {
	return nil
}
