package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/AccelByte/extend-level-progression/pkg/domain"
)

// MockProgressionRepository is a mock implementation of ProgressionRepository for testing.
// It uses testify/mock to allow test assertions on method calls.
type MockProgressionRepository struct {
	mock.Mock
}

// LoadOne mocks a point read.
func (m *MockProgressionRepository) LoadOne(ctx context.Context, userID uuid.UUID) (*domain.ProgressionState, error) {
	args := m.Called(ctx, userID)
	state, _ := args.Get(0).(*domain.ProgressionState)
	return state, args.Error(1)
}

// UpsertBatch mocks a batch write.
func (m *MockProgressionRepository) UpsertBatch(ctx context.Context, entries []domain.UserProgression) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// Close mocks releasing the connection.
func (m *MockProgressionRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// NewMockProgressionRepository creates a new mock repository.
func NewMockProgressionRepository() *MockProgressionRepository {
	return &MockProgressionRepository{}
}
