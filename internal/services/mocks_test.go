package services

import (
	"context"

	"github.com/getmentor/authflow/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockUserDataSource is a mock implementation of repository.UserDataSource
type MockUserDataSource struct {
	mock.Mock
}

func (m *MockUserDataSource) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDataSource) CheckPassword(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDataSource) MarkVerified(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
