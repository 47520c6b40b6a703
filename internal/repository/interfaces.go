package repository

import (
	"context"

	"github.com/getmentor/authflow/internal/models"
)

// UserDataSource defines the interface for dev server user lookups
type UserDataSource interface {
	// GetByEmail fetches a user by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// CheckPassword returns the user when password matches the stored hash
	CheckPassword(ctx context.Context, email, password string) (*models.User, error)

	// MarkVerified records that the user completed code verification
	MarkVerified(ctx context.Context, email string) error
}
