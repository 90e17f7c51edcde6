// Package audit records who changed what. Entries go to the structured log
// under the "audit" message.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Entry is one audited action
type Entry struct {
	RequestID  string
	ProfileID  string
	Role       string
	Action     string // e.g. "POST /api/tenants"
	Resource   string // e.g. "tenants"
	ResourceID string
	Status     int
}

// Outcome classifies an HTTP status for the log
func (e Entry) Outcome() string {
	switch {
	case e.Status >= 500:
		return "error"
	case e.Status == 401 || e.Status == 403:
		return "denied"
	case e.Status >= 400:
		return "rejected"
	default:
		return "success"
	}
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) Log(ctx context.Context, e Entry) {
	level := slog.LevelInfo
	if e.Outcome() == "denied" {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit",
		slog.String("action", e.Action),
		slog.String("resource", e.Resource),
		slog.String("resource_id", e.ResourceID),
		slog.String("profile_id", e.ProfileID),
		slog.String("role", e.Role),
		slog.Int("status", e.Status),
		slog.String("outcome", e.Outcome()),
		slog.String("request_id", e.RequestID),
		slog.Time("timestamp", time.Now()),
	)
}
