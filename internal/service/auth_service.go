package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-portal/internal/auth"
	"github.com/spec-kit/request-portal/internal/config"
	"github.com/spec-kit/request-portal/internal/domain"
	"github.com/spec-kit/request-portal/internal/repository"
	apperrors "github.com/spec-kit/request-portal/pkg/util"
)

// LoginLimiter throttles repeated failed logins. Implementations must be
// safe to call with a nil receiver disabled state.
type LoginLimiter interface {
	Allow(ctx context.Context, email string) bool
	RecordFailure(ctx context.Context, email string)
}

// AuthService verifies credentials and issues session tokens.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	hasher   auth.PasswordHasher
	limiter  LoginLimiter
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Limiter  LoginLimiter
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:    deps.UserRepo,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours),
		hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		limiter:  deps.Limiter,
	}
}

// Login authenticates a user and returns a signed session token. Unknown
// emails and wrong passwords produce the identical error so the endpoint
// never reveals which addresses are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	if s.limiter != nil && !s.limiter.Allow(ctx, email) {
		return nil, "", time.Time{}, apperrors.NewTooManyRequests("too many failed login attempts")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.recordFailure(ctx, email)
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email)
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.limiter != nil {
		s.limiter.RecordFailure(ctx, email)
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
