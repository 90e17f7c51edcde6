package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/security"
	"github.com/yourorg/propertyhub/internal/security/auth"
)

// AuthService handles sign-in and profile accounts
type AuthService struct {
	profiles domain.ProfileRepository
	tokens   *auth.TokenManager
	tokenTTL time.Duration
	authz    *security.Authorizer
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	profiles domain.ProfileRepository,
	tokens *auth.TokenManager,
	tokenTTL time.Duration,
	authz *security.Authorizer,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}

	return &AuthService{
		profiles: profiles,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		authz:    authz,
		logger:   logger,
	}
}

// LoginResult represents login response
type LoginResult struct {
	ProfileID string      `json:"profile_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expires_in"` // seconds
	TokenType string      `json:"token_type"`
}

var errInvalidCredentials = domain.NotAuthorized("login", "invalid email or password")

// Login authenticates a profile and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "login"
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.Validation(op, "email and password are required")
	}

	start := time.Now()
	profile, err := s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, gateway(op, start, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(profile, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("profile signed in",
		slog.String("profile_id", profile.ID),
		slog.String("role", string(profile.Role)),
	)

	return &LoginResult{
		ProfileID: profile.ID,
		Email:     profile.Email,
		Role:      profile.Role,
		Token:     token,
		ExpiresIn: int(s.tokenTTL.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// CreateProfile provisions an account. Only admins may call it.
func (s *AuthService) CreateProfile(ctx context.Context, req domain.CreateProfileRequest, id *domain.Identity) (*domain.Profile, error) {
	if err := s.authz.Authorize("createProfile", id, security.CapProfileCreate); err != nil {
		return nil, err
	}
	return s.ProvisionProfile(ctx, req)
}

// ProvisionProfile creates an account without a caller check. It backs the
// admin CLI, which runs with direct database access.
func (s *AuthService) ProvisionProfile(ctx context.Context, req domain.CreateProfileRequest) (*domain.Profile, error) {
	const op = "createProfile"
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &domain.Profile{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	start := time.Now()
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, gateway(op, start, err)
	}

	s.logger.Info("profile created",
		slog.String("profile_id", profile.ID),
		slog.String("role", string(profile.Role)),
	)
	return profile, nil
}

// ChangePassword replaces the caller's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, id *domain.Identity, current, next string) error {
	const op = "changePassword"
	if id == nil {
		return domain.NotAuthorized(op, "sign-in required")
	}
	if len(next) < 8 {
		return domain.Validation(op, "password must be at least 8 characters")
	}

	start := time.Now()
	profile, err := s.profiles.GetByID(ctx, id.ProfileID)
	if err != nil {
		return gateway(op, start, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(current)); err != nil {
		return domain.NotAuthorized(op, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	start = time.Now()
	if err := s.profiles.UpdatePassword(ctx, profile.ID, string(hash)); err != nil {
		return gateway(op, start, err)
	}
	s.logger.Info("password changed", slog.String("profile_id", profile.ID))
	return nil
}

// Me returns the caller's profile
func (s *AuthService) Me(ctx context.Context, id *domain.Identity) (*domain.Profile, error) {
	const op = "me"
	if id == nil {
		return nil, domain.NotAuthorized(op, "sign-in required")
	}
	start := time.Now()
	profile, err := s.profiles.GetByID(ctx, id.ProfileID)
	if err != nil {
		return nil, gateway(op, start, err)
	}
	return profile, nil
}
