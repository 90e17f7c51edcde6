package domain

import (
	"context"
	"time"
)

// Role is the role stored on a profile.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleTenant          Role = "tenant"
	RolePublicAuthority Role = "public_authority"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTenant, RolePublicAuthority:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Profile is the identity record of a user account.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller. It is passed explicitly into every
// core operation.
type Identity struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// ProfileRepository defines data access for profiles
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context) ([]*Profile, error)
}
