package render

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a render replaced by a newer
// submission from the same client.
var ErrSuperseded = errors.New("render: superseded by a newer submission")

// Guard keeps at most one render in flight per key. Acquiring a key cancels
// whatever render currently holds it.
type Guard struct {
	mu     sync.Mutex
	active map[string]*guardEntry
}

type guardEntry struct {
	cancel context.CancelCauseFunc
}

func NewGuard() *Guard {
	return &Guard{active: make(map[string]*guardEntry)}
}

// Acquire returns a context for a new render under key. The previous holder,
// if any, is cancelled with ErrSuperseded. release must be called once the
// render ends.
func (g *Guard) Acquire(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	e := &guardEntry{cancel: cancel}

	g.mu.Lock()
	if prev, ok := g.active[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	g.active[key] = e
	g.mu.Unlock()

	release := func() {
		g.mu.Lock()
		if g.active[key] == e {
			delete(g.active, key)
		}
		g.mu.Unlock()
		cancel(nil)
	}
	return ctx, release
}

func (g *Guard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// Superseded reports whether ctx was cancelled by a newer Acquire.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
