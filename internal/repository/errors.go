package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Foreign keys of maintenance_tickets, named in schema.sql.
const (
	ticketReporterFKey = "maintenance_tickets_reported_by_fkey"
	ticketRoomFKey     = "maintenance_tickets_room_id_property_id_fkey"
)

func pqCode(err error) string {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return ""
}

// nullString maps "" to NULL.
func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// pqConstraint returns the constraint a Postgres error names, if any.
func pqConstraint(err error) string {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Constraint
	}
	return ""
}
