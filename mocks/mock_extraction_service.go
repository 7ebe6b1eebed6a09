package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/services"
)

// MockExtractionService is a mock implementation of services.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) PageCount(ctx context.Context, path string) (int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Error(1)
}

func (m *MockExtractionService) Preview(ctx context.Context, path string, maxPages, maxChars int) (*models.DocumentPreview, error) {
	args := m.Called(ctx, path, maxPages, maxChars)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DocumentPreview), args.Error(1)
}

func (m *MockExtractionService) Process(ctx context.Context, req services.Request) (*models.ExtractionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExtractionResult), args.Error(1)
}

func (m *MockExtractionService) ProcessBatch(ctx context.Context, items []services.BatchItem, outDir string) []services.BatchOutcome {
	args := m.Called(ctx, items, outDir)
	if fn, ok := args.Get(0).(func(context.Context, []services.BatchItem, string) []services.BatchOutcome); ok {
		return fn(ctx, items, outDir)
	}
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]services.BatchOutcome)
}
