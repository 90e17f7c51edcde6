package auth

import (
	"testing"
	"time"

	"github.com/yourorg/propertyhub/internal/domain"
)

func TestGenerateAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", "")
	p := &domain.Profile{ID: "p-1", Email: "admin@example.com", Role: domain.RoleAdmin}

	token, err := tm.GenerateToken(p, time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	id := claims.Identity()
	if id.ProfileID != "p-1" || id.Role != domain.RoleAdmin || id.Email != "admin@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestValidateRejectsForeignSecretAndExpiry(t *testing.T) {
	p := &domain.Profile{ID: "p-1", Role: domain.RoleTenant}

	other, _ := NewTokenManager("other", "").GenerateToken(p, time.Minute)
	if _, err := NewTokenManager("secret", "").ValidateToken(other); err == nil {
		t.Fatalf("expected signature error")
	}

	tm := NewTokenManager("secret", "")
	expired, _ := tm.GenerateToken(p, -time.Minute)
	if _, err := tm.ValidateToken(expired); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestGenerateRequiresKnownRole(t *testing.T) {
	tm := NewTokenManager("secret", "")
	if _, err := tm.GenerateToken(&domain.Profile{ID: "p-1", Role: "owner"}, time.Minute); err == nil {
		t.Fatalf("expected role error")
	}
	if _, err := tm.GenerateToken(nil, time.Minute); err == nil {
		t.Fatalf("expected missing profile error")
	}
}

func TestExtractToken(t *testing.T) {
	if tok, err := ExtractToken("Bearer abc"); err != nil || tok != "abc" {
		t.Fatalf("unexpected %q %v", tok, err)
	}
	if _, err := ExtractToken("Basic abc"); err == nil {
		t.Fatalf("expected error for basic auth")
	}
}
