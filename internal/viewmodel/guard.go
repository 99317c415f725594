package viewmodel

import (
	"context"
	"sync"
)

// guard tracks the single in-flight request for one resource. Starting a
// new request cancels the previous one and bumps the generation, so a
// response is applied only if its generation is still current.
type guard struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// begin supersedes any in-flight request and returns the context and
// generation for the new one.
func (g *guard) begin(ctx context.Context) (context.Context, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	reqCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	return reqCtx, g.gen
}

// current reports whether gen is the most recently issued request.
func (g *guard) current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen == gen
}

// end releases the context of gen if it is still the in-flight request.
func (g *guard) end(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen == gen && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// idle reports whether no request is in flight.
func (g *guard) idle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancel == nil
}

// stop cancels the in-flight request and invalidates its generation.
func (g *guard) stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
}

// guarded runs fetch under g. apply is called with mu held, and only when
// the request was not superseded and ctx is still live. It reports whether
// apply ran.
func guarded[T any](ctx context.Context, g *guard, mu sync.Locker, fetch func(context.Context) (T, error), apply func(T, error)) bool {
	reqCtx, gen := g.begin(ctx)
	defer g.end(gen)

	v, err := fetch(reqCtx)

	mu.Lock()
	defer mu.Unlock()
	if !g.current(gen) || ctx.Err() != nil {
		return false
	}
	apply(v, err)
	return true
}
