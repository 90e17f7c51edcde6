package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/propertyhub/internal/domain"
	"github.com/yourorg/propertyhub/pkg/database"
)

// PostgresTenantRepository implements domain.TenantRepository and
// domain.OccupancyStore using PostgreSQL
type PostgresTenantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTenantRepository creates a new tenant repository
func NewPostgresTenantRepository(db *sql.DB, logger *slog.Logger) *PostgresTenantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTenantRepository{db: db, logger: logger}
}

const tenantColumns = `t.id, t.full_name, t.date_of_birth, t.tenant_type, t.identification_number,
	t.room_id, t.move_in_date, t.move_out_date, t.is_active, t.profile_id, t.created_at, t.updated_at`

// GetByID retrieves a tenant by ID
func (r *PostgresTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants t WHERE t.id = $1`
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("getTenant", "tenant")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return t, nil
}

// GetActiveByProfile returns the caller's active tenancy, or NotFound.
func (r *PostgresTenantRepository) GetActiveByProfile(ctx context.Context, profileID string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants t
		WHERE t.profile_id = $1 AND t.is_active
		ORDER BY t.created_at DESC
		LIMIT 1`
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, profileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("getTenancy", "tenancy")
		}
		return nil, fmt.Errorf("failed to get tenancy: %w", err)
	}
	return t, nil
}

// ListActive returns every active tenant
func (r *PostgresTenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants t WHERE t.is_active ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*domain.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// ListDetails returns all tenants newest first with room number and property
// name joined in.
func (r *PostgresTenantRepository) ListDetails(ctx context.Context) ([]*domain.TenantDetail, error) {
	query := `SELECT ` + tenantColumns + `,
			COALESCE(rm.room_number, ''), COALESCE(p.id::text, ''), COALESCE(p.name, '')
		FROM tenants t
		LEFT JOIN rooms rm ON rm.id = t.room_id
		LEFT JOIN properties p ON p.id = rm.property_id
		ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	details := []*domain.TenantDetail{}
	for rows.Next() {
		d := &domain.TenantDetail{}
		t := &d.Tenant
		if err := rows.Scan(
			&t.ID, &t.FullName, &t.DateOfBirth, &t.TenantType, &t.IdentificationNumber,
			&t.RoomID, &t.MoveInDate, &t.MoveOutDate, &t.IsActive, &t.ProfileID, &t.CreatedAt, &t.UpdatedAt,
			&d.RoomNumber, &d.PropertyID, &d.PropertyName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// AssignRoom claims the room and inserts the tenant in one transaction.
func (r *PostgresTenantRepository) AssignRoom(ctx context.Context, t *domain.Tenant) error {
	if t.RoomID == nil || *t.RoomID == "" {
		return domain.Validation("assignRoom", "room_id is required")
	}
	roomID := *t.RoomID

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE rooms SET is_occupied = true, updated_at = now() WHERE id = $1 AND is_occupied = false`,
			roomID,
		)
		if err != nil {
			return fmt.Errorf("failed to claim room: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, roomID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check room: %w", err)
			}
			if !exists {
				return domain.NotFound("assignRoom", "room")
			}
			return domain.RoomUnavailable("assignRoom", roomID)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO tenants (full_name, date_of_birth, tenant_type, identification_number,
				room_id, move_in_date, is_active, profile_id)
			VALUES ($1, $2, $3, $4, $5, $6, true, $7)
			RETURNING id, created_at, updated_at`,
			t.FullName, t.DateOfBirth, t.TenantType, t.IdentificationNumber,
			roomID, t.MoveInDate, nullString(t.ProfileID),
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			if pqCode(err) == pqUniqueViolation {
				return domain.RoomUnavailable("assignRoom", roomID)
			}
			return fmt.Errorf("failed to insert tenant: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("room assignment rolled back",
			slog.String("room_id", roomID),
			slog.String("error", err.Error()),
		)
		return err
	}

	t.IsActive = true
	return nil
}

// ReleaseRoom deactivates the tenant and frees the room unless another
// active tenant still references it.
func (r *PostgresTenantRepository) ReleaseRoom(ctx context.Context, tenantID string, moveOut time.Time) (*domain.Tenant, error) {
	var released *domain.Tenant

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `UPDATE tenants t
			SET is_active = false, move_out_date = $2, updated_at = now()
			WHERE t.id = $1 AND t.is_active
			RETURNING ` + tenantColumns
		t, err := scanTenant(tx.QueryRowContext(ctx, query, tenantID, moveOut))
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to deactivate tenant: %w", err)
			}
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, tenantID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check tenant: %w", err)
			}
			if !exists {
				return domain.NotFound("releaseRoom", "tenant")
			}
			return domain.Validation("releaseRoom", "tenant has already moved out")
		}

		if t.RoomID != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE rooms SET is_occupied = false, updated_at = now()
				WHERE id = $1
				  AND NOT EXISTS (SELECT 1 FROM tenants WHERE room_id = $1 AND is_active)`,
				*t.RoomID,
			)
			if err != nil {
				return fmt.Errorf("failed to release room: %w", err)
			}
		}
		released = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// SyncOccupancy recomputes a room's flag from its active tenants. The room
// row is locked first so the recount runs after any in-flight assignment or
// release on the same room has committed.
func (r *PostgresTenantRepository) SyncOccupancy(ctx context.Context, roomID string) (bool, error) {
	var occupied bool
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("syncOccupancy", "room")
		}
		if err != nil {
			return fmt.Errorf("failed to lock room: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE rooms SET is_occupied = EXISTS (
				SELECT 1 FROM tenants t WHERE t.room_id = rooms.id AND t.is_active
			), updated_at = now()
			WHERE id = $1
			RETURNING is_occupied`,
			roomID,
		).Scan(&occupied)
		if err != nil {
			return fmt.Errorf("failed to sync occupancy: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return occupied, nil
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := row.Scan(
		&t.ID, &t.FullName, &t.DateOfBirth, &t.TenantType, &t.IdentificationNumber,
		&t.RoomID, &t.MoveInDate, &t.MoveOutDate, &t.IsActive, &t.ProfileID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
