package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-portal/internal/domain"
	apperrors "github.com/spec-kit/request-portal/pkg/util"
)

const identityKey = "auth_identity"

// Middleware validates bearer tokens on protected routes. The identity is
// taken entirely from the token claims with no store re-fetch, so a role
// change only takes effect once the current session expires.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewMissingToken()
	}

	// A header with the wrong scheme is a bad credential, not an absent
	// one: only a fully missing header reports MissingToken.
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewInvalidToken()
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewInvalidToken()
	}

	identity := &domain.Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
