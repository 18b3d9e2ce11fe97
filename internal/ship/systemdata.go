package ship

// EpsSystemData is the stored energy pool and station battery.
type EpsSystemData struct {
	Eps           int  `json:"eps"`
	MaxEps        int  `json:"max_eps"`
	Battery       int  `json:"battery"`
	MaxBattery    int  `json:"max_battery"`
	ReloadBattery bool `json:"reload_battery"` // Stations divert surplus into the battery
}

// WarpDriveSystemData is the warp-drive charge.
type WarpDriveSystemData struct {
	WarpDrive     int  `json:"warp_drive"`
	MaxWarpDrive  int  `json:"max_warp_drive"`
	Split         int  `json:"split"`           // Percent of reactor output reserved for the warp drive
	AutoCarryOver bool `json:"auto_carry_over"` // Unused warp share flows back into the EPS
}

// Missing is the charge still needed to fill the warp drive.
func (w *WarpDriveSystemData) Missing() int {
	return max(0, w.MaxWarpDrive-w.WarpDrive)
}

// ReactorSystemData is the fuel load and rated output of the installed reactor.
type ReactorSystemData struct {
	Type     SystemType `json:"type"`
	Load     int        `json:"load"`
	Capacity int        `json:"capacity"` // Maximum load
	Output   int        `json:"output"`   // Rated output per tick
}

// TrackerSystemData is the tracker device countdown.
type TrackerSystemData struct {
	TargetID       *int64 `json:"target_id,omitempty"`
	RemainingTicks int    `json:"remaining_ticks"`
}

// AstroLabSystemData records when astrometric mapping was started.
type AstroLabSystemData struct {
	StartTurn uint64 `json:"start_turn"`
}

// AggregationSystemData is the configured input commodity of the aggregation system.
type AggregationSystemData struct {
	CommodityID int `json:"commodity_id"`
}

// SetAlertState changes the alert level. Raising the level above green
// costs one unit of stored energy.
func (s *Ship) SetAlertState(to AlertState) error {
	if to > AlertGreen && to > s.AlertState {
		stored := 0
		if s.Eps != nil {
			stored = s.Eps.Eps
		}
		if stored < 1 {
			return &EnergyError{Needed: 1, Stored: stored}
		}
		s.Eps.Eps--
	}
	s.AlertState = to
	return nil
}
