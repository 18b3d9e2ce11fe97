// Package telemetry records per-pass tick statistics as CSV.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/talgya/starbase/internal/config"
	"github.com/talgya/starbase/internal/engine"
)

// TickRow is one orchestrator pass in ticks.csv.
type TickRow struct {
	Turn          uint64  `csv:"turn"`
	RunID         string  `csv:"run_id"`
	Ships         int     `csv:"ships"`
	Failures      int     `csv:"failures"`
	Evacuations   int     `csv:"evacuations"`
	Constructions int     `csv:"constructions"`
	Shutdowns     int     `csv:"shutdowns"`
	Messages      int     `csv:"messages"`
	DurationMS    float64 `csv:"duration_ms"`
}

// RowFromSummary flattens a pass summary.
func RowFromSummary(s *engine.TickSummary) TickRow {
	return TickRow{
		Turn:          s.Turn,
		RunID:         s.RunID,
		Ships:         s.Ships,
		Failures:      s.Failures,
		Evacuations:   s.Evacuations,
		Constructions: s.Constructions,
		Shutdowns:     s.Shutdowns,
		Messages:      s.Messages,
		DurationMS:    float64(s.Duration.Microseconds()) / 1000,
	}
}

// OutputManager writes ticks.csv and rollups.csv under one directory.
type OutputManager struct {
	dir        string
	ticksFile  *os.File
	rollupFile *os.File

	ticksHeaderWritten  bool
	rollupHeaderWritten bool
}

// NewOutputManager creates the output directory and files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating ticks.csv: %w", err)
	}
	om.ticksFile = f

	f, err = os.Create(filepath.Join(dir, "rollups.csv"))
	if err != nil {
		om.ticksFile.Close()
		return nil, fmt.Errorf("creating rollups.csv: %w", err)
	}
	om.rollupFile = f

	return om, nil
}

// WriteConfig saves the running configuration next to the CSV files.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTick appends one pass to ticks.csv.
func (om *OutputManager) WriteTick(s *engine.TickSummary) error {
	if om == nil || s == nil {
		return nil
	}
	records := []TickRow{RowFromSummary(s)}

	if !om.ticksHeaderWritten {
		if err := gocsv.Marshal(records, om.ticksFile); err != nil {
			return fmt.Errorf("writing ticks: %w", err)
		}
		om.ticksHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.ticksFile); err != nil {
		return fmt.Errorf("writing ticks: %w", err)
	}
	return nil
}

// WriteRollup appends one window to rollups.csv.
func (om *OutputManager) WriteRollup(r WindowRow) error {
	if om == nil {
		return nil
	}
	records := []WindowRow{r}

	if !om.rollupHeaderWritten {
		if err := gocsv.Marshal(records, om.rollupFile); err != nil {
			return fmt.Errorf("writing rollup: %w", err)
		}
		om.rollupHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.rollupFile); err != nil {
		return fmt.Errorf("writing rollup: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.ticksFile != nil {
		if err := om.ticksFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.rollupFile != nil {
		if err := om.rollupFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
