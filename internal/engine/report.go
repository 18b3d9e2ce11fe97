package engine

import (
	"fmt"
	"strings"

	"github.com/talgya/starbase/internal/ship"
)

// Category sorts private messages into the owner's folders.
type Category string

const (
	CategoryShip    Category = "SHIP"
	CategoryStation Category = "STATION"
	CategorySystem  Category = "SYSTEM"
)

// CategoryFor returns the folder a report about s belongs in.
func CategoryFor(s *ship.Ship) Category {
	if s.IsBase {
		return CategoryStation
	}
	return CategoryShip
}

// Href is the deep link to a ship's page.
func Href(shipID int64) string {
	return fmt.Sprintf("/ship/%d", shipID)
}

// Message is an owner-facing private message.
type Message struct {
	Sender    int64    `json:"sender"`
	Recipient int64    `json:"recipient"`
	Text      string   `json:"text"`
	Category  Category `json:"category"`
	Href      string   `json:"href,omitempty"`
	Tick      uint64   `json:"tick"`
	RunID     string   `json:"run_id,omitempty"`
}

// Report accumulates the lines of one entity's tick. It is owned by that
// entity's pass through the pipeline and flushed once at the end.
type Report struct {
	lines []string
}

// Add appends a formatted line.
func (r *Report) Add(format string, args ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// AddLine appends a line verbatim; empty lines are dropped.
func (r *Report) AddLine(line string) {
	if line == "" {
		return
	}
	r.lines = append(r.lines, line)
}

// Lines returns the accumulated lines.
func (r *Report) Lines() []string { return r.lines }

// Empty reports whether nothing was recorded.
func (r *Report) Empty() bool { return len(r.lines) == 0 }

// Render formats the report as sent to the owner.
func (r *Report) Render(shipName string) string {
	var b strings.Builder
	b.WriteString("Tick report of ")
	b.WriteString(shipName)
	b.WriteString("\n")
	for _, line := range r.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
