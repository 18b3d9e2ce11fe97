package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/starbase/internal/engine"
)

func TestWriteTickHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	for turn := uint64(1); turn <= 3; turn++ {
		s := &engine.TickSummary{RunID: "run", Turn: turn, Ships: 4, Messages: 2, Duration: 1500 * time.Microsecond}
		if err := om.WriteTick(s); err != nil {
			t.Fatalf("WriteTick: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want header + 3:\n%s", len(lines), raw)
	}
	if !strings.HasPrefix(lines[0], "turn,run_id,ships") {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "1,run,4,0,0,0,0,2,1.5" {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestDisabledOutputIsNoop(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	if err := om.WriteTick(&engine.TickSummary{}); err != nil {
		t.Fatalf("WriteTick on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close on nil manager: %v", err)
	}
}

func TestWindowFlush(t *testing.T) {
	var w Window
	w.Add(&engine.TickSummary{Ships: 3, Failures: 1, Duration: 2 * time.Millisecond})
	w.Add(&engine.TickSummary{Ships: 5, Shutdowns: 2, Duration: 4 * time.Millisecond})

	row := w.Flush(12)
	if row.WindowEnd != 12 || row.Passes != 2 || row.Ships != 8 || row.Failures != 1 || row.Shutdowns != 2 {
		t.Fatalf("row = %+v", row)
	}
	if row.MeanMS != 3 || row.MaxMS != 4 {
		t.Fatalf("durations = %v/%v, want 3/4", row.MeanMS, row.MaxMS)
	}
	if next := w.Flush(24); next.Passes != 0 || next.MaxMS != 0 {
		t.Fatalf("window not reset: %+v", next)
	}
}
