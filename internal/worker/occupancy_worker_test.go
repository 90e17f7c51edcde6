package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/propertyhub/internal/service"
)

type fakeChecker struct {
	verifies   atomic.Int32
	reconciles atomic.Int32
	err        error
}

func (f *fakeChecker) VerifyOccupancy(context.Context) ([]service.OccupancyDrift, error) {
	f.verifies.Add(1)
	return []service.OccupancyDrift{{RoomID: "r1", IsOccupied: true}}, f.err
}

func (f *fakeChecker) ReconcileOccupancy(context.Context) ([]service.OccupancyDrift, error) {
	f.reconciles.Add(1)
	return nil, f.err
}

func TestOccupancyWorkerVerifiesByDefault(t *testing.T) {
	f := &fakeChecker{}
	w := NewOccupancyWorker(f, nil, 10*time.Millisecond, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return f.verifies.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, f.reconciles.Load())
}

func TestOccupancyWorkerRepairs(t *testing.T) {
	f := &fakeChecker{err: errors.New("connection refused")}
	w := NewOccupancyWorker(f, nil, time.Hour, true)

	w.check(context.Background())
	assert.Equal(t, int32(1), f.reconciles.Load())
	assert.Zero(t, f.verifies.Load())
}
