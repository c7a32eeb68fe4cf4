package pollclient

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by a guarded call that a newer call replaced.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Guard lets at most one call per endpoint be current. Starting a call cancels the
// previous one; its result is discarded and reported as ErrSuperseded.
type Guard struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (g *Guard) begin(ctx context.Context) (context.Context, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.seq++
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	return ctx, g.seq
}

// finish reports whether seq is still the current call and releases it.
func (g *Guard) finish(seq uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.seq {
		return false
	}
	g.cancel()
	g.cancel = nil
	return true
}

// Cancel aborts the current call, if any.
func (g *Guard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
}

// Run executes fn as the current call of g.
func Run[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	callCtx, seq := g.begin(ctx)
	result, err := fn(callCtx)
	if !g.finish(seq) {
		var zero T
		return zero, ErrSuperseded
	}
	return result, err
}
