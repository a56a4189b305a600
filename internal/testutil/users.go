package testutil

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/request-portal/internal/domain"
)

// NewUser creates an account in the fake store with a real (cheap) bcrypt
// hash so login flows exercise the actual password comparison.
func NewUser(t *testing.T, repo *MemoryUserRepo, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// Identity derives the claims-shaped identity for a user.
func Identity(user *domain.User) *domain.Identity {
	return &domain.Identity{ID: user.ID, Email: user.Email, Role: user.Role}
}
