package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/yourorg/propertyhub/internal/domain"
)

// PostgresPropertyRepository implements domain.PropertyRepository using PostgreSQL
type PostgresPropertyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPropertyRepository creates a new property repository
func NewPostgresPropertyRepository(db *sql.DB, logger *slog.Logger) *PostgresPropertyRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPropertyRepository{db: db, logger: logger}
}

const propertyColumns = `id, name, location, description, created_by, created_at, updated_at`

// Create creates a new property
func (r *PostgresPropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	query := `
		INSERT INTO properties (name, location, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Location, p.Description, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create property",
			slog.String("name", p.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// Update rewrites name, location and description
func (r *PostgresPropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	query := `
		UPDATE properties
		SET name = $1, location = $2, description = $3, updated_at = now()
		WHERE id = $4
		RETURNING created_by, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Location, p.Description, p.ID).
		Scan(&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("updateProperty", "property")
		}
		return fmt.Errorf("failed to update property: %w", err)
	}
	return nil
}

// GetByID retrieves a property by ID
func (r *PostgresPropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p := &domain.Property{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Location, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("getProperty", "property")
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// ListWithRooms returns every property newest first with its rooms embedded.
func (r *PostgresPropertyRepository) ListWithRooms(ctx context.Context) ([]*domain.PropertyListing, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var listings []*domain.PropertyListing
	byID := make(map[string]*domain.PropertyListing)
	ids := make([]string, 0)
	for rows.Next() {
		l := &domain.PropertyListing{Rooms: []*domain.Room{}}
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Location, &l.Description, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		listings = append(listings, l)
		byID[l.ID] = l
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	if len(ids) == 0 {
		return listings, nil
	}

	roomQuery := `SELECT ` + roomColumns + ` FROM rooms WHERE property_id = ANY($1) ORDER BY room_number`
	roomRows, err := r.db.QueryContext(ctx, roomQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer roomRows.Close()

	for roomRows.Next() {
		room, err := scanRoom(roomRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		if l, ok := byID[room.PropertyID]; ok {
			l.Rooms = append(l.Rooms, room)
		}
	}
	return listings, roomRows.Err()
}

const roomColumns = `id, property_id, room_number, room_type, price, is_occupied, created_at, updated_at`

// PostgresRoomRepository implements domain.RoomRepository using PostgreSQL
type PostgresRoomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoomRepository creates a new room repository
func NewPostgresRoomRepository(db *sql.DB, logger *slog.Logger) *PostgresRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoomRepository{db: db, logger: logger}
}

// Create inserts a vacant room
func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (property_id, room_number, room_type, price, is_occupied)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, room.PropertyID, room.RoomNumber, room.RoomType, room.Price).
		Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		switch pqCode(err) {
		case pqUniqueViolation:
			return domain.Validation("createRoom", "room %s already exists in this property", room.RoomNumber)
		case pqForeignKeyViolation:
			return domain.NotFound("createRoom", "property")
		}
		r.logger.Error("failed to create room",
			slog.String("property_id", room.PropertyID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create room: %w", err)
	}
	room.IsOccupied = false
	return nil
}

// Update rewrites room_number, room_type and price. Occupancy and property
// are left alone.
func (r *PostgresRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	query := `
		UPDATE rooms
		SET room_number = $1, room_type = $2, price = $3, updated_at = now()
		WHERE id = $4
		RETURNING ` + roomColumns
	updated, err := scanRoom(r.db.QueryRowContext(ctx, query, room.RoomNumber, room.RoomType, room.Price, room.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("updateRoom", "room")
		}
		if pqCode(err) == pqUniqueViolation {
			return domain.Validation("updateRoom", "room %s already exists in this property", room.RoomNumber)
		}
		return fmt.Errorf("failed to update room: %w", err)
	}
	*room = *updated
	return nil
}

// GetByID retrieves a room by ID
func (r *PostgresRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	room, err := scanRoom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("getRoom", "room")
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// ListByProperty returns a property's rooms ordered by room number
func (r *PostgresRoomRepository) ListByProperty(ctx context.Context, propertyID string) ([]*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE property_id = $1 ORDER BY room_number`
	return r.list(ctx, query, propertyID)
}

// List returns every room
func (r *PostgresRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY property_id, room_number`
	return r.list(ctx, query)
}

func (r *PostgresRoomRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanRoom(row rowScanner) (*domain.Room, error) {
	room := &domain.Room{}
	err := row.Scan(
		&room.ID, &room.PropertyID, &room.RoomNumber, &room.RoomType,
		&room.Price, &room.IsOccupied, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return room, nil
}
