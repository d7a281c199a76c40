package mocks

import (
	"context"
	"log/slog"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockActionHandler is a mock implementation of protocol.ActionHandler interface.
type MockActionHandler struct {
	mock.Mock

	Key string
}

func NewMockActionHandler(key string) *MockActionHandler {
	return &MockActionHandler{Key: key}
}

func (m *MockActionHandler) ActionTypeKey() string {
	return m.Key
}

func (m *MockActionHandler) Execute(ctx context.Context, actionCtx models.ActionContext, logger *slog.Logger) (*models.ActionResult, error) {
	args := m.Called(ctx, actionCtx, logger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ActionResult), args.Error(1)
}

func (m *MockActionHandler) Validate(configJSON string) error {
	args := m.Called(configJSON)

	return args.Error(0)
}
