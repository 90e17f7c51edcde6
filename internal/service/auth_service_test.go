package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/repository/memory"
	"github.com/yourorg/propertyhub/internal/security"
	"github.com/yourorg/propertyhub/internal/security/auth"
)

func newAuthService() (*AuthService, *auth.TokenManager) {
	tm := auth.NewTokenManager("test-secret", "propertyhub-test")
	store := memory.NewStore()
	return NewAuthService(store.Profiles(), tm, time.Hour, security.NewAuthorizer(nil), nil), tm
}

func TestLoginIssuesRoleClaims(t *testing.T) {
	svc, tm := newAuthService()
	ctx := context.Background()

	p, err := svc.ProvisionProfile(ctx, domain.CreateProfileRequest{
		Email: "Gov@Example.com", FullName: "Inspector", Role: domain.RolePublicAuthority, Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "gov@example.com", p.Email)
	assert.NotEqual(t, "correct horse", p.PasswordHash)

	res, err := svc.Login(ctx, "gov@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, 3600, res.ExpiresIn)

	claims, err := tm.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, claims.ProfileID)
	assert.Equal(t, domain.RolePublicAuthority, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	_, err := svc.ProvisionProfile(ctx, domain.CreateProfileRequest{
		Email: "a@example.com", FullName: "A", Role: domain.RoleAdmin, Password: "password1",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateProfileRequiresAdmin(t *testing.T) {
	svc, _ := newAuthService()
	req := domain.CreateProfileRequest{Email: "t@example.com", FullName: "T", Role: domain.RoleTenant, Password: "password1"}

	_, err := svc.CreateProfile(context.Background(), req, tenantUser)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = svc.CreateProfile(context.Background(), req, adminID)
	require.NoError(t, err)

	_, err = svc.CreateProfile(context.Background(), req, adminID)
	assert.ErrorIs(t, err, domain.ErrValidation, "duplicate email")
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	p, err := svc.ProvisionProfile(ctx, domain.CreateProfileRequest{
		Email: "t@example.com", FullName: "T", Role: domain.RoleTenant, Password: "password1",
	})
	require.NoError(t, err)
	id := &domain.Identity{ProfileID: p.ID, Email: p.Email, Role: p.Role}

	assert.ErrorIs(t, svc.ChangePassword(ctx, id, "wrong", "password2"), domain.ErrNotAuthorized)
	assert.ErrorIs(t, svc.ChangePassword(ctx, id, "password1", "short"), domain.ErrValidation)
	require.NoError(t, svc.ChangePassword(ctx, id, "password1", "password2"))

	_, err = svc.Login(ctx, "t@example.com", "password2")
	assert.NoError(t, err)

	me, err := svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "T", me.FullName)
}
