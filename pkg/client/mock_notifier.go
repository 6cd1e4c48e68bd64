package client

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// MockNotifier is a mock implementation of Notifier for testing.
// It uses testify/mock to allow test assertions on method calls.
type MockNotifier struct {
	mock.Mock
}

// NotifyLevelUp mocks delivering a level-up notice.
func (m *MockNotifier) NotifyLevelUp(ctx context.Context, notice domain.LevelUpNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}
