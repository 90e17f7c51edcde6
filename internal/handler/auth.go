package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/internal/security"
	"github.com/yourorg/propertyhub/internal/service"
)

// AuthHandler handles sign-in and profile endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, "login", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthorized) {
			// generic answer to prevent account enumeration
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials", Kind: domain.KindOf(err)})
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(r, "changePassword", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), identity(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MeResponse is the caller's profile with what its role may do
type MeResponse struct {
	*domain.Profile
	Capabilities []security.Capability `json:"capabilities"`
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.authService.Me(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	caps := security.ResolveCapabilities(profile.Role).Capabilities
	if caps == nil {
		caps = []security.Capability{}
	}
	writeJSON(w, http.StatusOK, MeResponse{Profile: profile, Capabilities: caps})
}

// CreateProfile handles POST /api/profiles
func (h *AuthHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProfileRequest
	if err := decodeJSON(r, "createProfile", &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	profile, err := h.authService.CreateProfile(r.Context(), req, identity(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}
