package engine

import (
	"context"
	"testing"
	"time"
)

func TestEngine_StepRunsCallbacks(t *testing.T) {
	e := NewEngine()
	e.RollupEvery = 3
	e.SetTurn(10)

	var turns, rollups []uint64
	e.OnTurn = func(_ context.Context, turn uint64) { turns = append(turns, turn) }
	e.OnRollup = func(_ context.Context, turn uint64) { rollups = append(rollups, turn) }

	for i := 0; i < 5; i++ {
		e.Step(context.Background())
	}
	if e.Turn() != 15 || len(turns) != 5 || turns[0] != 11 {
		t.Fatalf("turns: %v (now %d)", turns, e.Turn())
	}
	if len(rollups) != 2 || rollups[0] != 12 || rollups[1] != 15 {
		t.Fatalf("rollups: %v", rollups)
	}
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	e := NewEngine()
	e.Interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	e.OnTurn = func(_ context.Context, turn uint64) {
		if turn == 3 {
			cancel()
		}
	}

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("engine did not stop")
	}
	if e.Turn() != 3 || e.Running() {
		t.Fatalf("turn %d running %v", e.Turn(), e.Running())
	}
}

func TestEngine_SpeedClamp(t *testing.T) {
	e := NewEngine()
	e.SetSpeed(-2)
	if e.Speed() != 0 {
		t.Fatalf("speed: got %v", e.Speed())
	}
}
