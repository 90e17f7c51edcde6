package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/feed"
	"github.com/yourorg/propertyhub/internal/infrastructure/logger"
	"github.com/yourorg/propertyhub/internal/repository"
	"github.com/yourorg/propertyhub/internal/repository/memory"
	"github.com/yourorg/propertyhub/internal/security"
	"github.com/yourorg/propertyhub/internal/security/auth"
	"github.com/yourorg/propertyhub/internal/security/middleware"
	"github.com/yourorg/propertyhub/internal/service"
)

const testPassword = "correct-horse"

// testServer runs the full router behind the auth middleware on a memory store
type testServer struct {
	Server  *httptest.Server
	Logger  *slog.Logger
	Auth    *service.AuthService
	Tokens  *auth.TokenManager
	Hub     *feed.Hub
	Tickets *service.TicketService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewLogger("error")
	store := memory.NewStore()
	repos := service.Repositories{
		Profiles:   store.Profiles(),
		Properties: store.Properties(),
		Rooms:      store.Rooms(),
		Tenants:    store.Tenants(),
		Occupancy:  store.Tenants(),
		Tickets:    store.Tickets(),
	}
	authz := security.NewAuthorizer(log)
	cache := repository.NewMemoryInventoryCache()
	hub := feed.NewHub(log)
	tokens := auth.NewTokenManager("test-secret", "propertyhub-test")

	authService := service.NewAuthService(repos.Profiles, tokens, time.Hour, authz, log)
	occupancy := service.NewOccupancyService(repos, cache, authz, log)
	tickets := service.NewTicketService(repos, hub, authz, log)
	properties := service.NewPropertyService(repos, cache, authz, log)
	dashboards := service.NewDashboardService(repos, occupancy, tickets, cache, time.Minute, authz, log)

	mux := NewRouter(Handlers{
		Health:     NewHealthHandler(map[string]Check{"database": func(context.Context) error { return nil }, "redis": nil}, log),
		Auth:       NewAuthHandler(authService, log),
		Properties: NewPropertyHandler(properties, log),
		Tenants:    NewTenantHandler(occupancy, log),
		Tickets:    NewTicketHandler(tickets, log),
		Dashboards: NewDashboardHandler(dashboards, log),
		Feed:       NewTicketFeedHandler(tickets, hub, func() bool { return true }, nil, log),
	})
	var h http.Handler = mux
	h = middleware.ValidateJSONContentType(log)(h)
	h = middleware.JWTMiddleware(tokens, "/login", log)(h)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, Logger: log, Auth: authService, Tokens: tokens, Hub: hub, Tickets: tickets}
}

func (s *testServer) URL() string {
	return s.Server.URL
}

// profile provisions an account and returns a bearer token for it
func (s *testServer) profile(t *testing.T, email string, role domain.Role) (*domain.Profile, string) {
	t.Helper()
	p, err := s.Auth.ProvisionProfile(context.Background(), domain.CreateProfileRequest{
		Email: email, FullName: "Test " + string(role), Role: role, Password: testPassword,
	})
	require.NoError(t, err)
	token, err := s.Tokens.GenerateToken(p, time.Hour)
	require.NoError(t, err)
	return p, token
}

// do sends a JSON request and decodes the JSON answer into out when non-nil
func (s *testServer) do(t *testing.T, method, path, token string, body, out any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL()+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
