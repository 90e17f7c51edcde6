package feed

import (
	"context"
	"sync"
)

// Guard hands out fetch generations for one live view. Starting a new fetch
// cancels the previous one, and a result is applied only while its
// generation is still current.
type Guard struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Begin starts a fetch generation derived from parent
func (g *Guard) Begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	g.cancel = cancel
	return ctx, g.gen
}

// Current reports whether gen is still the latest generation
func (g *Guard) Current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen == g.gen
}

// Apply runs fn only if gen is still current, under the guard's lock so a
// concurrent Begin cannot interleave.
func (g *Guard) Apply(gen uint64, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return false
	}
	fn()
	return true
}

// Stop cancels the in-flight fetch and invalidates every generation
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
}
