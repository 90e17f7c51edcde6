package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/propertyhub/internal/domain"
)

// PostgresProfileRepository implements domain.ProfileRepository using PostgreSQL
type PostgresProfileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresProfileRepository creates a new profile repository
func NewPostgresProfileRepository(db *sql.DB, logger *slog.Logger) *PostgresProfileRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProfileRepository{
		db:     db,
		logger: logger,
	}
}

const profileColumns = `id, email, full_name, role, password_hash, created_at, updated_at`

// Create creates a new profile
func (r *PostgresProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (email, full_name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, p.Email, p.FullName, p.Role, p.PasswordHash).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return domain.Validation("createProfile", "a profile with email %s already exists", p.Email)
		}
		r.logger.Error("failed to create profile",
			slog.String("email", p.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by ID
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.getOne(ctx, "getProfile", query, id)
}

// GetByEmail retrieves a profile by email
func (r *PostgresProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1)`
	return r.getOne(ctx, "getProfileByEmail", query, email)
}

func (r *PostgresProfileRepository) getOne(ctx context.Context, op, query string, arg any) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "profile")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpdatePassword replaces the stored password hash
func (r *PostgresProfileRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE profiles SET password_hash = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		r.logger.Error("failed to update password",
			slog.String("profile_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("updatePassword", "profile")
	}
	return nil
}

// List returns every profile ordered by email
func (r *PostgresProfileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY email`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
