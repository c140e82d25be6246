package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockOracle is a mock implementation of port.Oracle.
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Complete(ctx context.Context, prompt string) (string, int, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Int(1), args.Error(2)
}
