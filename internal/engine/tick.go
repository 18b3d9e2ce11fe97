// Package engine provides the turn loop and the per-entity tick pipeline.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Engine drives turns forward.
type Engine struct {
	Interval    time.Duration // Base turn interval at speed 1
	RollupEvery uint64        // Turns between OnRollup calls, 0 disables

	// Callbacks, populated during setup.
	OnTurn   func(ctx context.Context, turn uint64) // Every turn
	OnRollup func(ctx context.Context, turn uint64) // Every RollupEvery turns

	work    sync.Mutex // Held while turn callbacks run
	mu      sync.Mutex
	turn    uint64
	speed   float64
	running atomic.Bool
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval: 5 * time.Second,
		speed:    1.0,
	}
}

// Turn returns the last completed turn.
func (e *Engine) Turn() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turn
}

// SetTurn restores the turn counter, e.g. from persisted state.
func (e *Engine) SetTurn(turn uint64) {
	e.mu.Lock()
	e.turn = turn
	e.mu.Unlock()
}

// Speed returns the speed multiplier: 1.0 = configured interval, 0 = paused.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Negative values pause.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	e.speed = max(0, speed)
	e.mu.Unlock()
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the turn loop. Blocks until Stop is called or ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	slog.Info("tick engine started", "turn", e.Turn(), "speed", e.Speed(), "interval", e.Interval)

	for e.running.Load() && ctx.Err() == nil {
		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			sleep(ctx, 100*time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step(ctx)

		// Sleep for the remainder of the interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			sleep(ctx, target-elapsed)
		}
	}

	e.running.Store(false)
	slog.Info("tick engine stopped", "turn", e.Turn())
}

// Stop halts the turn loop after the current turn.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances by one turn and runs the callbacks.
func (e *Engine) Step(ctx context.Context) uint64 {
	e.mu.Lock()
	e.turn++
	turn := e.turn
	e.mu.Unlock()

	e.work.Lock()
	defer e.work.Unlock()
	if e.OnTurn != nil {
		e.OnTurn(ctx, turn)
	}
	if e.RollupEvery > 0 && turn%e.RollupEvery == 0 && e.OnRollup != nil {
		e.OnRollup(ctx, turn)
	}
	return turn
}

// Exclusive runs fn while no turn is in progress.
func (e *Engine) Exclusive(fn func()) {
	e.work.Lock()
	defer e.work.Unlock()
	fn()
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
