package engine

import (
	"github.com/talgya/starbase/internal/catalog"
	"github.com/talgya/starbase/internal/ship"
)

// AggregationConverter converts stored commodities with the aggregation system.
type AggregationConverter struct {
	Catalog *catalog.Catalog
}

func (AggregationConverter) Name() string { return "aggregation" }

func (a AggregationConverter) Apply(tc *TickContext) (Outcome, error) {
	s := tc.Ship
	sys, err := s.System(ship.SystemAggregationSystem)
	if err != nil || !sys.Active() || sys.Module == nil {
		return Continue, nil
	}
	if s.Aggregation == nil || s.Aggregation.CommodityID <= 0 {
		return Continue, nil
	}

	input := s.Aggregation.CommodityID
	cv, ok := a.Catalog.Conversion(input)
	if !ok {
		return Continue, nil
	}
	in, out := cv.InputAmount, cv.OutputAmount
	if sys.Module.IsFaction(a.Catalog.Aggregation.DoublingFactionID) {
		in *= 2
		out *= 2
	}

	name := a.Catalog.CommodityName(input)
	have, present := s.Storage.Amount(input)
	if !present {
		tc.Report.Add("No %s available!", name)
		return Continue, nil
	}
	if have < in {
		tc.Report.Add("Not enough %s available!", name)
		return Continue, nil
	}

	if err := s.Storage.Lower(input, in); err != nil {
		return Continue, err
	}
	s.Storage.Upper(cv.Output, out)
	return Continue, nil
}
