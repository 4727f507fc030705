package core

import (
	"context"
	"sync"
)

// Gate announces that a Core is available. Components that start before
// the core wait on the gate instead of polling a global.
//
// Only the first Publish takes effect.
type Gate struct {
	once sync.Once
	done chan struct{}
	core *Core
}

// NewGate returns an unpublished gate.
func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Publish makes c available to waiters. It reports whether this call
// published; later calls are ignored.
func (g *Gate) Publish(c *Core) bool {
	published := false
	g.once.Do(func() {
		g.core = c
		close(g.done)
		published = true
	})
	return published
}

// Done is closed once the gate is published.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate is published or ctx is done.
func (g *Gate) Wait(ctx context.Context) (*Core, error) {
	select {
	case <-g.done:
		return g.core, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Core returns the published core without blocking.
func (g *Gate) Core() (*Core, bool) {
	select {
	case <-g.done:
		return g.core, true
	default:
		return nil, false
	}
}
