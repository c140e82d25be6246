package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docledger/internal/domain"
)

// MockDocumentRepo is a mock implementation of port.DocumentRepository.
type MockDocumentRepo struct {
	mock.Mock
}

func (m *MockDocumentRepo) Create(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepo) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepo) List(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockDocumentRepo) FirstByClientWithPrompt(ctx context.Context, clientName string) (*domain.Document, error) {
	args := m.Called(ctx, clientName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepo) ListWithPrompts(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockDocumentRepo) CountByClient(ctx context.Context, clientName string) (int, error) {
	args := m.Called(ctx, clientName)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepo) LatestLedgerForLayout(ctx context.Context, layout domain.Layout) (domain.PromptLedger, error) {
	args := m.Called(ctx, layout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.PromptLedger), args.Error(1)
}

func (m *MockDocumentRepo) UpdateVersion(ctx context.Context, id int64, version int, prompt string) (*domain.Document, error) {
	args := m.Called(ctx, id, version, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepo) IDsByLayout(ctx context.Context, layout domain.Layout) ([]int64, error) {
	args := m.Called(ctx, layout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDocumentRepo) AppendVersion(ctx context.Context, id int64, prompt string, ts time.Time) error {
	args := m.Called(ctx, id, prompt, ts)
	return args.Error(0)
}

func (m *MockDocumentRepo) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
