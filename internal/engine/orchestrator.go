package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/ship"
	"github.com/talgya/starbase/internal/systems"
)

// slowStep is the duration above which a single step is logged.
const slowStep = 10 * time.Millisecond

// TickSummary describes one orchestrator pass.
type TickSummary struct {
	RunID         string        `json:"run_id" csv:"run_id"`
	Turn          uint64        `json:"turn" csv:"turn"`
	Ships         int           `json:"ships" csv:"ships"`
	Failures      int           `json:"failures" csv:"failures"`
	Evacuations   int           `json:"evacuations" csv:"evacuations"`
	Constructions int           `json:"constructions" csv:"constructions"`
	Shutdowns     int           `json:"shutdowns" csv:"shutdowns"`
	Messages      int           `json:"messages" csv:"messages"`
	Duration      time.Duration `json:"duration" csv:"-"`
}

// Rules are the game constants the pipeline needs beyond the catalog.
type Rules struct {
	AstroTurnsToFinish     uint64
	TakeoverTurns          uint64
	TrackerDistanceDivisor int
}

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Source    ShipSource
	Store     ShipStore
	Sender    MessageSender
	Mining    MiningStore
	Locator   ShipLocator
	Entries   DatabaseEntries
	Takeovers TakeoverStore

	// Evacuator defaults to a CrewEvacuator saving through Store.
	Evacuator Evacuator
	// Rand defaults to a PCG source seeded from the clock.
	Rand *rand.Rand
	// Now defaults to time.Now.
	Now func() time.Time
}

// Orchestrator advances every due entity through the tick pipeline.
type Orchestrator struct {
	source ShipSource
	store  ShipStore
	sender MessageSender
	steps  []Step
	now    func() time.Time
}

// NewOrchestrator builds the standard pipeline: construction, life support,
// energy, repair, takeover, astro mapping, tracker, bussard collector and
// aggregation, followed by save and flush.
func NewOrchestrator(cat *catalog.Catalog, rules Rules, deps Deps) *Orchestrator {
	mgr := systems.NewManager(cat)
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		seed := uint64(deps.Now().UnixNano())
		deps.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if deps.Evacuator == nil {
		deps.Evacuator = &CrewEvacuator{Systems: mgr, Catalog: cat, Store: deps.Store}
	}

	steps := []Step{
		ConstructionProgressor{},
		LifeSupportCheck{Evacuator: deps.Evacuator},
		EnergyStep{Allocator: NewEnergyAllocator(mgr), Evacuator: deps.Evacuator},
		RepairProcessor{Systems: mgr, Rules: cat.Repair},
		TakeoverFinisher{Store: deps.Takeovers, Turns: rules.TakeoverTurns},
		AstroMapping{Entries: deps.Entries, TurnsToFinish: rules.AstroTurnsToFinish},
		TrackerDevice{Locator: deps.Locator, Systems: mgr, Divisor: rules.TrackerDistanceDivisor},
		BussardCollector{Mining: deps.Mining, Ranges: cat.Bussard, Rand: deps.Rand, Now: deps.Now},
		AggregationConverter{Catalog: cat},
	}
	return NewPipeline(deps.Source, deps.Store, deps.Sender, deps.Now, steps...)
}

// NewPipeline returns an orchestrator running the given steps in order.
func NewPipeline(source ShipSource, store ShipStore, sender MessageSender, now func() time.Time, steps ...Step) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{source: source, store: store, sender: sender, steps: steps, now: now}
}

// Work runs one pass over every due entity. A failing entity is logged
// and counted; it does not stop the pass.
func (o *Orchestrator) Work(ctx context.Context, turn uint64) (*TickSummary, error) {
	start := o.now()
	sum := &TickSummary{RunID: uuid.NewString(), Turn: turn}

	ships, err := o.source.ListDueShips(ctx)
	if err != nil {
		return nil, fmt.Errorf("list due ships: %w", err)
	}

	for _, s := range ships {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Ships++
		tc, err := o.TickShip(ctx, s, turn, sum.RunID)
		if err != nil {
			sum.Failures++
			slog.Warn("ship tick aborted", "ship", s.ID, "run", sum.RunID, "error", err)
			continue
		}
		if tc.Evacuated {
			sum.Evacuations++
		}
		if tc.Constructed {
			sum.Constructions++
		}
		sum.Shutdowns += tc.ShutdownCount
		if !tc.Report.Empty() {
			sum.Messages++
		}
		sum.Messages += len(tc.Notices)
	}

	sum.Duration = o.now().Sub(start)
	slog.Info("ship tick complete",
		"turn", turn,
		"run", sum.RunID,
		"ships", humanize.Comma(int64(sum.Ships)),
		"failures", sum.Failures,
		"messages", humanize.Comma(int64(sum.Messages)),
		"duration", sum.Duration,
	)
	return sum, nil
}

// TickShip runs the pipeline on one entity. On error the entity is neither
// saved nor reported, and side effects registered with OnFailure are
// reverted. Panics are recovered into errors.
func (o *Orchestrator) TickShip(ctx context.Context, s *ship.Ship, turn uint64, runID string) (tc *TickContext, err error) {
	tc = &TickContext{Ctx: ctx, Ship: s, Turn: turn, Report: &Report{}}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
		if err == nil {
			return
		}
		if rbErr := tc.rollback(context.WithoutCancel(ctx)); rbErr != nil {
			slog.Error("ship tick rollback failed", "ship", s.ID, "run", runID, "error", rbErr)
		}
	}()

	outcome := Continue
	for _, step := range o.steps {
		begin := o.now()
		outcome, err = step.Apply(tc)
		if d := o.now().Sub(begin); d > slowStep {
			slog.Debug("slow tick step", "ship", s.ID, "step", step.Name(), "duration", d)
		}
		if err != nil {
			return tc, fmt.Errorf("%s: %w", step.Name(), err)
		}
		if outcome != Continue {
			break
		}
	}

	if outcome != Abandon {
		if err := o.store.SaveShip(ctx, s); err != nil {
			return tc, fmt.Errorf("save: %w", err)
		}
	}
	o.flush(ctx, tc, runID)
	return tc, nil
}

// flush sends the entity's report and queued notices. Delivery failures
// are logged; the tick itself already succeeded.
func (o *Orchestrator) flush(ctx context.Context, tc *TickContext, runID string) {
	s := tc.Ship
	var out []Message
	if !tc.Report.Empty() {
		out = append(out, Message{
			Sender:    ship.UserNoOne,
			Recipient: s.UserID,
			Text:      tc.Report.Render(s.Name),
			Category:  CategoryFor(s),
			Href:      Href(s.ID),
			Tick:      tc.Turn,
		})
	}
	out = append(out, tc.Notices...)

	for _, m := range out {
		m.RunID = runID
		if err := o.sender.SendMessage(ctx, m); err != nil {
			slog.Error("send tick message failed", "ship", s.ID, "recipient", m.Recipient, "error", err)
		}
	}
}
