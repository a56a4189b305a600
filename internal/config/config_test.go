package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	for _, key := range []string{
		"APP_NAME", "AUTH_TOKEN_TTL_HOURS", "AUTH_BCRYPT_COST",
		"AUTH_LOGIN_ATTEMPT_LIMIT", "AUTH_LOGIN_ATTEMPT_WINDOW_SECONDS",
		"HTTP_REQUEST_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "request-portal", cfg.App.Name)
	require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.Equal(t, 24, cfg.Auth.TokenTTLHours)
	require.Equal(t, 12, cfg.Auth.BcryptCost)
	require.Equal(t, 0, cfg.Auth.LoginAttemptLimit)
	require.Equal(t, 5*time.Minute, cfg.Auth.LoginAttemptWindow())
	require.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "48")
	t.Setenv("AUTH_LOGIN_ATTEMPT_LIMIT", "5")
	t.Setenv("AUTH_LOGIN_ATTEMPT_WINDOW_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
	require.Equal(t, 48, cfg.Auth.TokenTTLHours)
	require.Equal(t, 5, cfg.Auth.LoginAttemptLimit)
	require.Equal(t, time.Minute, cfg.Auth.LoginAttemptWindow())
}
