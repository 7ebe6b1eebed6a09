package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockObjectStore is a mock implementation of services.ObjectStore.
// Use Run on the expectation to materialise downloaded files.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Download(ctx context.Context, bucket, key, destPath string) error {
	args := m.Called(ctx, bucket, key, destPath)
	return args.Error(0)
}

func (m *MockObjectStore) Upload(ctx context.Context, bucket, key, srcPath, contentType string) (string, error) {
	args := m.Called(ctx, bucket, key, srcPath, contentType)
	return args.String(0), args.Error(1)
}
