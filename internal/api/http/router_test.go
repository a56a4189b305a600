package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/request-portal/internal/api/dto"
	"github.com/spec-kit/request-portal/internal/api/http/handlers"
	"github.com/spec-kit/request-portal/internal/auth"
	"github.com/spec-kit/request-portal/internal/config"
	"github.com/spec-kit/request-portal/internal/domain"
	"github.com/spec-kit/request-portal/internal/events"
	"github.com/spec-kit/request-portal/internal/observability"
	"github.com/spec-kit/request-portal/internal/persistence"
	"github.com/spec-kit/request-portal/internal/service"
	"github.com/spec-kit/request-portal/internal/testutil"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	users := testutil.NewMemoryUserRepo()
	requests := testutil.NewMemoryRequestRepo(users)
	audit := testutil.NewMemoryAuditRepo()
	testutil.NewUser(t, users, "admin@company.com", "admin-pass", domain.RoleAdmin)
	testutil.NewUser(t, users, "member@company.com", "member-pass", domain.RoleMember)

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenTTLHours: 1,
		BcryptCost:    bcrypt.MinCost,
	}}
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requests,
		AuditRepo:   audit,
		Dispatcher:  events.NewInMemoryDispatcher(),
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:           handlers.NewAuthHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager()),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) (*nethttp.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func login(t *testing.T, app *fiber.App, email, password string) dto.LoginResponse {
	t.Helper()
	resp, raw := doJSON(t, app, nethttp.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, 200, resp.StatusCode, string(raw))
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestLoginEndpoint(t *testing.T) {
	app := newTestApp(t)

	out := login(t, app, "admin@company.com", "admin-pass")
	require.NotEmpty(t, out.Token)
	require.Equal(t, "admin@company.com", out.User.Email)
	require.Equal(t, domain.RoleAdmin, out.User.Role)

	resp, raw := doJSON(t, app, nethttp.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "admin@company.com",
		Password: "wrong",
	})
	require.Equal(t, 401, resp.StatusCode)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Equal(t, "Invalid credentials", envelope["error"])

	// unknown email returns the identical body and status
	resp2, raw2 := doJSON(t, app, nethttp.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		Email:    "ghost@company.com",
		Password: "wrong",
	})
	require.Equal(t, resp.StatusCode, resp2.StatusCode)
	require.JSONEq(t, string(raw), string(raw2))
}

func TestAuthGuard(t *testing.T) {
	app := newTestApp(t)

	resp, raw := doJSON(t, app, nethttp.MethodGet, "/api/requests", "", nil)
	require.Equal(t, 401, resp.StatusCode)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Equal(t, "Access denied", envelope["error"])

	resp, raw = doJSON(t, app, nethttp.MethodGet, "/api/requests", "not-a-real-token", nil)
	require.Equal(t, 403, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Equal(t, "Invalid token", envelope["error"])

	// a non-Bearer scheme is a bad credential, not a missing one
	req := httptest.NewRequest(nethttp.MethodGet, "/api/requests", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 403, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Equal(t, "Invalid token", envelope["error"])
}

func TestRequestLifecycleEndToEnd(t *testing.T) {
	app := newTestApp(t)

	admin := login(t, app, "admin@company.com", "admin-pass")
	member := login(t, app, "member@company.com", "member-pass")

	// member submits a request; priority defaults to medium
	resp, raw := doJSON(t, app, nethttp.MethodPost, "/api/requests", member.Token, dto.CreateRequestPayload{
		Title:       "VPN access",
		Description: "Need access for remote work",
		Category:    "IT Support",
	})
	require.Equal(t, 201, resp.StatusCode, string(raw))
	var created dto.RequestResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.Equal(t, domain.RequestStatusPending, created.Status)
	require.Equal(t, domain.RequestPriorityMedium, created.Priority)
	require.Equal(t, member.User.ID, created.UserID)

	// it appears in the member's list and in the admin's, email-annotated
	resp, raw = doJSON(t, app, nethttp.MethodGet, "/api/requests", member.Token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var memberList []dto.RequestResponse
	require.NoError(t, json.Unmarshal(raw, &memberList))
	require.Len(t, memberList, 1)
	require.Equal(t, created.ID, memberList[0].ID)

	resp, raw = doJSON(t, app, nethttp.MethodGet, "/api/requests", admin.Token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var adminList []dto.RequestResponse
	require.NoError(t, json.Unmarshal(raw, &adminList))
	require.Len(t, adminList, 1)
	require.Equal(t, "member@company.com", adminList[0].CreatorEmail)

	// only admins may approve
	resp, _ = doJSON(t, app, nethttp.MethodPatch, "/api/requests/"+created.ID, member.Token, dto.UpdateRequestPayload{
		Status: "approved",
	})
	require.Equal(t, 403, resp.StatusCode)

	resp, raw = doJSON(t, app, nethttp.MethodPatch, "/api/requests/"+created.ID, admin.Token, dto.UpdateRequestPayload{
		Status: "approved",
	})
	require.Equal(t, 200, resp.StatusCode, string(raw))
	var approved dto.RequestResponse
	require.NoError(t, json.Unmarshal(raw, &approved))
	require.Equal(t, domain.RequestStatusApproved, approved.Status)
	require.True(t, approved.UpdatedAt.After(created.UpdatedAt))

	// approved is terminal
	resp, _ = doJSON(t, app, nethttp.MethodPatch, "/api/requests/"+created.ID, admin.Token, dto.UpdateRequestPayload{
		Status: "rejected",
	})
	require.Equal(t, 409, resp.StatusCode)

	// owner deletes; a second delete is a 404 and the list is empty
	resp, raw = doJSON(t, app, nethttp.MethodDelete, "/api/requests/"+created.ID, member.Token, nil)
	require.Equal(t, 200, resp.StatusCode, string(raw))
	var deleted dto.DeleteRequestResponse
	require.NoError(t, json.Unmarshal(raw, &deleted))
	require.Equal(t, "Request deleted", deleted.Message)
	require.Equal(t, created.ID, deleted.DeletedRequest.ID)

	resp, _ = doJSON(t, app, nethttp.MethodDelete, "/api/requests/"+created.ID, member.Token, nil)
	require.Equal(t, 404, resp.StatusCode)

	resp, raw = doJSON(t, app, nethttp.MethodGet, "/api/requests", member.Token, nil)
	require.Equal(t, 200, resp.StatusCode)
	memberList = nil
	require.NoError(t, json.Unmarshal(raw, &memberList))
	require.Empty(t, memberList)
}

func TestPatchUnknownID(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin@company.com", "admin-pass")

	resp, raw := doJSON(t, app, nethttp.MethodPatch, "/api/requests/does-not-exist", admin.Token, dto.UpdateRequestPayload{
		Title: "x",
	})
	require.Equal(t, 404, resp.StatusCode)
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Equal(t, "Request not found", envelope["error"])
}
