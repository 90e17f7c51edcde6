package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/propertyhub/internal/domain"
)

// PostgresTicketRepository implements domain.TicketRepository using PostgreSQL
type PostgresTicketRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTicketRepository creates a new ticket repository
func NewPostgresTicketRepository(db *sql.DB, logger *slog.Logger) *PostgresTicketRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTicketRepository{db: db, logger: logger}
}

const ticketColumns = `mt.id, mt.title, mt.description, mt.status, mt.assigned_vendor,
	mt.room_id, mt.property_id, mt.reported_by, mt.created_at, mt.updated_at`

const ticketDetailQuery = `SELECT ` + ticketColumns + `, rm.room_number, p.name
	FROM maintenance_tickets mt
	JOIN rooms rm ON rm.id = mt.room_id
	JOIN properties p ON p.id = mt.property_id`

// Create inserts an open ticket. The composite foreign key rejects a
// property_id that is not the room's.
func (r *PostgresTicketRepository) Create(ctx context.Context, t *domain.MaintenanceTicket) error {
	if t.Status == "" {
		t.Status = domain.TicketOpen
	}
	query := `
		INSERT INTO maintenance_tickets (title, description, status, assigned_vendor, room_id, property_id, reported_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.Status, t.AssignedVendor, t.RoomID, t.PropertyID, t.ReportedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			switch pqConstraint(err) {
			case ticketReporterFKey:
				return domain.NotFound("createTicket", "profile")
			case ticketRoomFKey:
				return domain.NotFound("createTicket", "room")
			}
		}
		r.logger.Error("failed to create ticket",
			slog.String("room_id", t.RoomID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetByID retrieves a ticket by ID
func (r *PostgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM maintenance_tickets mt WHERE mt.id = $1`
	t, err := scanTicket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("getTicket", "ticket")
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return t, nil
}

// UpdateStatus writes only when the stored status differs. When the row
// already carries status, the current ticket is returned with changed=false.
func (r *PostgresTicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.MaintenanceTicket, bool, error) {
	query := `UPDATE maintenance_tickets mt
		SET status = $2, updated_at = now()
		WHERE mt.id = $1 AND mt.status <> $2
		RETURNING ` + ticketColumns
	t, err := scanTicket(r.db.QueryRowContext(ctx, query, id, status))
	if err == nil {
		return t, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to update ticket status: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// UpdateVendor sets or clears the assigned vendor
func (r *PostgresTicketRepository) UpdateVendor(ctx context.Context, id, vendor string) (*domain.MaintenanceTicket, error) {
	query := `UPDATE maintenance_tickets mt
		SET assigned_vendor = $2, updated_at = now()
		WHERE mt.id = $1
		RETURNING ` + ticketColumns
	t, err := scanTicket(r.db.QueryRowContext(ctx, query, id, vendor))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("assignVendor", "ticket")
		}
		return nil, fmt.Errorf("failed to update vendor: %w", err)
	}
	return t, nil
}

// ListByRoom returns a room's tickets newest first
func (r *PostgresTicketRepository) ListByRoom(ctx context.Context, roomID string) ([]*domain.TicketDetail, error) {
	return r.listDetails(ctx, ticketDetailQuery+` WHERE mt.room_id = $1 ORDER BY mt.created_at DESC`, roomID)
}

// ListDetails returns every ticket newest first
func (r *PostgresTicketRepository) ListDetails(ctx context.Context) ([]*domain.TicketDetail, error) {
	return r.listDetails(ctx, ticketDetailQuery+` ORDER BY mt.created_at DESC`)
}

func (r *PostgresTicketRepository) listDetails(ctx context.Context, query string, args ...any) ([]*domain.TicketDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	details := []*domain.TicketDetail{}
	for rows.Next() {
		d := &domain.TicketDetail{}
		t := &d.MaintenanceTicket
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.AssignedVendor,
			&t.RoomID, &t.PropertyID, &t.ReportedBy, &t.CreatedAt, &t.UpdatedAt,
			&d.RoomNumber, &d.PropertyName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func scanTicket(row rowScanner) (*domain.MaintenanceTicket, error) {
	t := &domain.MaintenanceTicket{}
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.AssignedVendor,
		&t.RoomID, &t.PropertyID, &t.ReportedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
