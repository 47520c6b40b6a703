package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/getmentor/authflow/internal/models"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = fmt.Errorf("%w: user", apperrors.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
)

type userRecord struct {
	user         models.User
	passwordHash []byte
}

// UserRepository keeps the dev server's users in memory with bcrypt password hashes
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*userRecord
}

// NewUserRepository hashes the seed passwords with the given bcrypt cost.
// Seed keys are emails, values plaintext passwords.
func NewUserRepository(seed map[string]string, cost int) (*UserRepository, error) {
	emails := make([]string, 0, len(seed))
	for email := range seed {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	users := make(map[string]*userRecord, len(seed))
	for _, email := range emails {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed[email]), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}
		key := normalizeEmail(email)
		users[key] = &userRecord{
			user: models.User{
				ID:    uuid.NewString(),
				Email: key,
				Name:  displayName(key),
			},
			passwordHash: hash,
		}
	}

	return &UserRepository{users: users}, nil
}

// GetByEmail fetches a user by email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := rec.user
	return &user, nil
}

// CheckPassword compares password with the stored hash
func (r *UserRepository) CheckPassword(_ context.Context, email, password string) (*models.User, error) {
	r.mu.RLock()
	rec, ok := r.users[normalizeEmail(email)]
	r.mu.RUnlock()

	if !ok {
		// Unknown users get the same answer as a wrong password
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	r.mu.RLock()
	user := rec.user
	r.mu.RUnlock()
	return &user, nil
}

// MarkVerified flags the user as verified
func (r *UserRepository) MarkVerified(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[normalizeEmail(email)]
	if !ok {
		return ErrUserNotFound
	}
	rec.user.IsVerified = true
	return nil
}

// Count returns the number of known users
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// displayName derives a name from the local part, "jane.doe@x" -> "Jane Doe"
func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
