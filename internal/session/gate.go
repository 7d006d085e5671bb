package session

import "context"

// Gate is a single-permit gate. Pause holds it; tick loops pass through it between
// ticks and therefore block while it is held.
type Gate struct {
	permit chan struct{}
}

// NewGate creates an open gate.
func NewGate() *Gate {
	return &Gate{permit: make(chan struct{}, 1)}
}

// Acquire takes the permit, blocking until it is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.permit <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the permit. Releasing an open gate is a no-op.
func (g *Gate) Release() {
	select {
	case <-g.permit:
	default:
	}
}

// Pass acquires and immediately releases the permit.
func (g *Gate) Pass(ctx context.Context) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	g.Release()
	return nil
}

// Held reports whether the permit is taken.
func (g *Gate) Held() bool {
	return len(g.permit) == 1
}
