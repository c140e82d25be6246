package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docledger/internal/domain"
	"docledger/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) ProcessDocument(ctx context.Context, input *service.ProcessInput) (*service.ProcessResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}

func (m *MockExtractionService) InferenceDocument(ctx context.Context, input *service.ProcessInput) (*service.ProcessResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProcessResult), args.Error(1)
}

func (m *MockExtractionService) TryPrompt(ctx context.Context, document, instruction string, schema map[string]string) (*service.TryPromptResult, error) {
	args := m.Called(ctx, document, instruction, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TryPromptResult), args.Error(1)
}

func (m *MockExtractionService) SavePrompt(ctx context.Context, documentID int64, prompt string) (int, error) {
	args := m.Called(ctx, documentID, prompt)
	return args.Int(0), args.Error(1)
}

func (m *MockExtractionService) ApplyPromptToLayout(ctx context.Context, layout domain.Layout, prompt string) (int, error) {
	args := m.Called(ctx, layout, prompt)
	return args.Int(0), args.Error(1)
}

func (m *MockExtractionService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockExtractionService) ListWithVersions(ctx context.Context) ([]service.DocumentVersions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentVersions), args.Error(1)
}

func (m *MockExtractionService) GetVersions(ctx context.Context, documentID int64) (*service.DocumentVersions, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentVersions), args.Error(1)
}

func (m *MockExtractionService) UpdateVersion(ctx context.Context, documentID int64, version int, prompt string) (*service.DocumentVersions, error) {
	args := m.Called(ctx, documentID, version, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentVersions), args.Error(1)
}

func (m *MockExtractionService) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
