package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/propertyhub/internal/service"
)

// OccupancyChecker is the part of the occupancy service the worker drives
type OccupancyChecker interface {
	VerifyOccupancy(ctx context.Context) ([]service.OccupancyDrift, error)
	ReconcileOccupancy(ctx context.Context) ([]service.OccupancyDrift, error)
}

// OccupancyWorker periodically compares every room's occupied flag with its
// active tenants. With repair on, drifting flags are rewritten.
type OccupancyWorker struct {
	occupancy OccupancyChecker
	logger    *slog.Logger
	interval  time.Duration
	repair    bool
}

// NewOccupancyWorker creates a new occupancy worker
func NewOccupancyWorker(occupancy OccupancyChecker, logger *slog.Logger, interval time.Duration, repair bool) *OccupancyWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &OccupancyWorker{
		occupancy: occupancy,
		logger:    logger,
		interval:  interval,
		repair:    repair,
	}
}

// Start runs checks until ctx is cancelled
func (w *OccupancyWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("occupancy worker started",
		slog.Duration("interval", w.interval),
		slog.Bool("repair", w.repair),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("occupancy worker stopped")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *OccupancyWorker) check(ctx context.Context) {
	if w.repair {
		fixed, err := w.occupancy.ReconcileOccupancy(ctx)
		if err != nil {
			w.logger.Error("occupancy repair failed", slog.String("error", err.Error()))
			return
		}
		if len(fixed) > 0 {
			w.logger.Info("occupancy repaired", slog.Int("rooms", len(fixed)))
		}
		return
	}

	drift, err := w.occupancy.VerifyOccupancy(ctx)
	if err != nil {
		w.logger.Error("occupancy check failed", slog.String("error", err.Error()))
		return
	}
	for _, d := range drift {
		w.logger.Warn("occupancy drift",
			slog.String("room_id", d.RoomID),
			slog.String("room_number", d.RoomNumber),
			slog.Bool("is_occupied", d.IsOccupied),
			slog.Int("active_tenants", d.ActiveTenants),
		)
	}
}
