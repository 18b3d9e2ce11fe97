package engine

import "log/slog"

// EnergyStep runs the energy allocator and evacuates when life support
// had to be shut down.
type EnergyStep struct {
	Allocator *EnergyAllocator
	Evacuator Evacuator
}

func (EnergyStep) Name() string { return "energy" }

func (e EnergyStep) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	if s.Eps == nil {
		slog.Debug("ship has no eps, skipping remaining phases", "ship", s.ID)
		return Finish, nil
	}

	alloc := e.Allocator.Allocate(s, tc.Report)
	tc.ShutdownCount += len(alloc.Shutdowns)

	if alloc.Evacuate {
		tc.Report.AddLine("Life support has failed:")
		msg, err := e.Evacuator.Evacuate(tc.Ctx, s)
		if err != nil {
			return Continue, err
		}
		tc.Report.AddLine(msg)
		tc.Evacuated = true
		return Abandon, nil
	}
	return Continue, nil
}
