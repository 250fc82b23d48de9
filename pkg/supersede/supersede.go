// Package supersede runs keyed calls where the latest call wins.
//
// Starting a call for a key cancels the call already in flight for that key,
// and a result that arrives after a newer call started is discarded.
package supersede

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by a call that a newer call for the same key replaced
var ErrSuperseded = errors.New("superseded by a newer request")

// Group tracks the in-flight call per key
type Group struct {
	mu    sync.Mutex
	seq   uint64
	calls map[string]*call
}

type call struct {
	id     uint64
	cancel context.CancelFunc
}

// NewGroup creates an empty group
func NewGroup() *Group {
	return &Group{calls: make(map[string]*call)}
}

// Do runs fn as the current call for key
func Do[T any](ctx context.Context, g *Group, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	id := g.begin(key, cancel)

	v, err := fn(ctx)
	if !g.finish(key, id) {
		var zero T
		return zero, ErrSuperseded
	}
	return v, err
}

// Cancel aborts the in-flight call for key, if any
func (g *Group) Cancel(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.calls[key]; ok {
		c.cancel()
		delete(g.calls, key)
	}
}

// InFlight returns the number of keys with a running call
func (g *Group) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *Group) begin(key string, cancel context.CancelFunc) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.calls[key]; ok {
		prev.cancel()
	}
	g.seq++
	g.calls[key] = &call{id: g.seq, cancel: cancel}
	return g.seq
}

// finish releases the call and reports whether it was still current
func (g *Group) finish(key string, id uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.calls[key]
	if !ok || c.id != id {
		return false
	}
	c.cancel()
	delete(g.calls, key)
	return true
}
