package session

import (
	"context"
	"testing"
	"time"
)

func TestGate_AcquireRelease(t *testing.T) {
	g := NewGate()
	if g.Held() {
		t.Fatal("new gate should be open")
	}

	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !g.Held() {
		t.Error("gate should be held after Acquire")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx); err == nil {
		t.Error("Acquire should block while held")
	}

	g.Release()
	if g.Held() {
		t.Error("gate should be open after Release")
	}

	// releasing an open gate is a no-op
	g.Release()
	if err := g.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire on an open gate: %v", err)
	}
}

func TestGate_PassBlocksWhileHeld(t *testing.T) {
	g := NewGate()
	g.Acquire(context.Background())

	passed := make(chan struct{})
	go func() {
		g.Pass(context.Background())
		close(passed)
	}()

	select {
	case <-passed:
		t.Fatal("Pass returned while the gate was held")
	case <-time.After(50 * time.Millisecond):
	}

	g.Release()
	select {
	case <-passed:
	case <-time.After(time.Second):
		t.Fatal("Pass did not return after Release")
	}
	if g.Held() {
		t.Error("Pass should leave the gate open")
	}
}

func TestGate_AcquireCancelled(t *testing.T) {
	g := NewGate()
	g.Acquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := g.Acquire(ctx); err == nil {
		t.Error("expected context error")
	}
}
