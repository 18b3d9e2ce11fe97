package engine

import (
	"context"
	"errors"

	"github.com/talgya/starbase/internal/ship"
)

// Outcome tells the orchestrator how to continue an entity's tick.
type Outcome int

const (
	// Continue runs the next step.
	Continue Outcome = iota
	// Finish skips the remaining steps, then saves the entity and flushes its report.
	Finish
	// Abandon skips the remaining steps and the save; the report is still flushed.
	// Used when a collaborator has already persisted the entity.
	Abandon
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Finish:
		return "finish"
	case Abandon:
		return "abandon"
	}
	return "unknown"
}

// TickContext is one entity's state for the duration of its tick.
type TickContext struct {
	Ctx    context.Context
	Ship   *ship.Ship
	Turn   uint64
	Report *Report

	// Notices are messages other than the tick report, sent on flush.
	Notices []Message

	Evacuated     bool
	Constructed   bool
	ShutdownCount int

	undo []func(ctx context.Context) error
}

// OnFailure registers fn to revert a side effect committed outside the
// entity's save. It runs only when the entity's tick fails.
func (tc *TickContext) OnFailure(fn func(ctx context.Context) error) {
	tc.undo = append(tc.undo, fn)
}

// rollback runs the registered undo functions in reverse order. It keeps
// going after a failure and returns the joined errors.
func (tc *TickContext) rollback(ctx context.Context) error {
	var errs []error
	for i := len(tc.undo) - 1; i >= 0; i-- {
		if err := tc.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	tc.undo = nil
	return errors.Join(errs...)
}

// Notify queues a separate message for delivery with the report.
func (tc *TickContext) Notify(recipient int64, text string, cat Category) {
	tc.Notices = append(tc.Notices, Message{
		Sender:    ship.UserNoOne,
		Recipient: recipient,
		Text:      text,
		Category:  cat,
		Href:      Href(tc.Ship.ID),
		Tick:      tc.Turn,
	})
}

// Step is one phase of an entity's tick.
type Step interface {
	Name() string
	Apply(tc *TickContext) (Outcome, error)
}
