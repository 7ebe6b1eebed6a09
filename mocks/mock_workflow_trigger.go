package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockWorkflowTrigger is a mock implementation of services.WorkflowTrigger.
type MockWorkflowTrigger struct {
	mock.Mock
}

func (m *MockWorkflowTrigger) Trigger(ctx context.Context, payload map[string]interface{}) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}
