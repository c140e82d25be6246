package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docledger/internal/port"
)

// MockConverter is a mock implementation of port.Converter.
type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) Convert(ctx context.Context, path string) (*port.ConvertOutput, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ConvertOutput), args.Error(1)
}
