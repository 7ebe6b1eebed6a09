package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Lllllllleong/pagepick/internal/models"
)

// MockJobLedger is a mock implementation of services.JobLedger.
type MockJobLedger struct {
	mock.Mock
}

func (m *MockJobLedger) FindCompleted(ctx context.Context, fileHash, pagesKey string) (*models.ExtractionJob, error) {
	args := m.Called(ctx, fileHash, pagesKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExtractionJob), args.Error(1)
}

func (m *MockJobLedger) Start(ctx context.Context, job models.ExtractionJob) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}

func (m *MockJobLedger) Complete(ctx context.Context, jobID string, result *models.ExtractionResult, outputURI, executionID string) error {
	args := m.Called(ctx, jobID, result, outputURI, executionID)
	return args.Error(0)
}

func (m *MockJobLedger) Fail(ctx context.Context, jobID, details string) error {
	args := m.Called(ctx, jobID, details)
	return args.Error(0)
}
