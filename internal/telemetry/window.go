package telemetry

import (
	"sync"
	"time"

	"github.com/talgya/starbase/internal/engine"
)

// WindowRow aggregates the passes between two rollups.
type WindowRow struct {
	WindowEnd     uint64  `csv:"window_end"`
	Passes        int     `csv:"passes"`
	Ships         int     `csv:"ships"`
	Failures      int     `csv:"failures"`
	Evacuations   int     `csv:"evacuations"`
	Constructions int     `csv:"constructions"`
	Shutdowns     int     `csv:"shutdowns"`
	Messages      int     `csv:"messages"`
	MeanMS        float64 `csv:"mean_duration_ms"`
	MaxMS         float64 `csv:"max_duration_ms"`
}

// Window collects pass summaries until Flush.
type Window struct {
	mu    sync.Mutex
	row   WindowRow
	total time.Duration
	max   time.Duration
}

// Add folds one pass into the window.
func (w *Window) Add(s *engine.TickSummary) {
	if s == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.row.Passes++
	w.row.Ships += s.Ships
	w.row.Failures += s.Failures
	w.row.Evacuations += s.Evacuations
	w.row.Constructions += s.Constructions
	w.row.Shutdowns += s.Shutdowns
	w.row.Messages += s.Messages
	w.total += s.Duration
	w.max = max(w.max, s.Duration)
}

// Flush returns the window ending at turn and starts a new one.
func (w *Window) Flush(turn uint64) WindowRow {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := w.row
	row.WindowEnd = turn
	if row.Passes > 0 {
		row.MeanMS = float64(w.total.Microseconds()) / 1000 / float64(row.Passes)
	}
	row.MaxMS = float64(w.max.Microseconds()) / 1000

	w.row = WindowRow{}
	w.total = 0
	w.max = 0
	return row
}
