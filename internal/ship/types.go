// Package ship provides the ship and station data model advanced by the tick engine.
package ship

import (
	"fmt"
	"sort"
)

// UserNoOne is the system actor used as sender of automated messages.
const UserNoOne int64 = 1

// FirstPlayerUserID is the lowest user ID owned by a human player.
// Lower IDs are reserved for NPC factions and system actors.
const FirstPlayerUserID int64 = 101

// State is the lifecycle state of a ship or station.
type State uint8

const (
	StateNone State = iota
	StateUnderConstruction
	StateUnderScrapping
	StateRepairPassive
	StateRepairActive
	StateAstroFinalizing
	StateSystemMapping
)

var stateNames = map[State]string{
	StateNone:              "none",
	StateUnderConstruction: "under_construction",
	StateUnderScrapping:    "under_scrapping",
	StateRepairPassive:     "repair_passive",
	StateRepairActive:      "repair_active",
	StateAstroFinalizing:   "astro_finalizing",
	StateSystemMapping:     "system_mapping",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// AlertState is the readiness level. Ordered: Green < Yellow < Red.
type AlertState uint8

const (
	AlertGreen  AlertState = 1
	AlertYellow AlertState = 2
	AlertRed    AlertState = 3
)

// EnergyUsage is the per-tick surcharge for holding this alert level.
func (a AlertState) EnergyUsage() int {
	if a < AlertGreen {
		return 0
	}
	return int(a) - 1
}

// Description is the owner-facing name of the alert level.
func (a AlertState) Description() string {
	switch a {
	case AlertGreen:
		return "Alert Green"
	case AlertYellow:
		return "Alert Yellow"
	case AlertRed:
		return "Alert Red"
	}
	return "Alert Unknown"
}

// Mode is the operating mode of an installed system.
type Mode uint8

const (
	ModeOff       Mode = 0
	ModeOn        Mode = 1
	ModeAlwaysOn  Mode = 2
	ModeAlwaysOff Mode = 3
)

var modeNames = map[Mode]string{
	ModeOff:       "off",
	ModeOn:        "on",
	ModeAlwaysOn:  "always_on",
	ModeAlwaysOff: "always_off",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// UnmarshalText parses a mode name as used in catalog files.
func (m *Mode) UnmarshalText(b []byte) error {
	for k, v := range modeNames {
		if v == string(b) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown system mode %q", b)
}

// MarshalText renders the mode name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Rump is the hull class of a ship or station.
type Rump struct {
	ID             int64  `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	FlightECost    int    `json:"flight_ecost" yaml:"flight_ecost"`       // Energy per warp-drive unit
	BuildTime      int    `json:"build_time" yaml:"build_time"`           // Ticks to build
	NeededWorkbees int    `json:"needed_workbees" yaml:"needed_workbees"` // Docked workbees needed to build
	IsWorkbee      bool   `json:"is_workbee,omitempty" yaml:"is_workbee"`
	IsEscapePods   bool   `json:"is_escape_pods,omitempty" yaml:"is_escape_pods"`
	IsStation      bool   `json:"is_station,omitempty" yaml:"is_station"`
}

// Module is the buildplan module backing an installed system.
type Module struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FactionID *int   `json:"faction_id,omitempty"` // nil = available to every faction
}

// FactionRestricted reports whether the module is bound to a faction.
func (m *Module) FactionRestricted() bool {
	return m != nil && m.FactionID != nil
}

// IsFaction reports whether the module is restricted to the given faction.
func (m *Module) IsFaction(id int) bool {
	return m != nil && m.FactionID != nil && *m.FactionID == id
}

// System is one installed ship system.
type System struct {
	Type       SystemType `json:"type"`
	Mode       Mode       `json:"mode"`
	Status     int        `json:"status"`      // Health, 0–100
	EnergyCost int        `json:"energy_cost"` // Per-tick consumption while active
	Module     *Module    `json:"module,omitempty"`
}

// Healthy reports whether the system has any health left.
func (s *System) Healthy() bool { return s.Status > 0 }

// Active reports whether the system is currently powered.
func (s *System) Active() bool { return s.Mode == ModeOn || s.Mode == ModeAlwaysOn }

// Damaged reports whether the system is below full health.
func (s *System) Damaged() bool { return s.Status < 100 }

// SystemLocation is the star system a ship is inside.
type SystemLocation struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DatabaseEntryID int64  `json:"database_entry_id,omitempty"`
}

// MapRegion is the region of the outer map a ship is in.
type MapRegion struct {
	ID              int64  `json:"id"`
	Description     string `json:"description"`
	DatabaseEntryID int64  `json:"database_entry_id,omitempty"`
}

// Location places a ship on the outer map.
type Location struct {
	CX     int             `json:"cx"`
	CY     int             `json:"cy"`
	System *SystemLocation `json:"system,omitempty"`
	Region *MapRegion      `json:"region,omitempty"`
}

// SectorString renders the map coordinates as shown to players.
func (l Location) SectorString() string {
	if l.System != nil {
		return fmt.Sprintf("%d|%d (%s)", l.CX, l.CY, l.System.Name)
	}
	return fmt.Sprintf("%d|%d", l.CX, l.CY)
}

// DatabaseEntry returns the database entry for the ship's location and a
// label for it. The star system takes precedence over the map region.
func (l Location) DatabaseEntry() (int64, string) {
	if l.System != nil {
		return l.System.DatabaseEntryID, "of the system " + l.System.Name
	}
	if l.Region != nil {
		return l.Region.DatabaseEntryID, "of the region " + l.Region.Description
	}
	return 0, ""
}

// Ship is a player-owned ship or station.
type Ship struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Rump   Rump   `json:"rump"`
	IsBase bool   `json:"is_base"` // Station
	State  State  `json:"state"`

	Hull       int `json:"hull"`
	MaxHull    int `json:"max_hull"`
	RepairRate int `json:"repair_rate"` // Hull restored per passive repair tick

	Crew    int `json:"crew"`
	MinCrew int `json:"min_crew"`

	AlertState AlertState `json:"alert_state"`
	Systems    []*System  `json:"systems"`

	// Per-system state, nil when the system is not installed.
	Eps         *EpsSystemData         `json:"eps,omitempty"`
	WarpDrive   *WarpDriveSystemData   `json:"warp_drive,omitempty"`
	Reactor     *ReactorSystemData     `json:"reactor,omitempty"`
	Tracker     *TrackerSystemData     `json:"tracker,omitempty"`
	AstroLab    *AstroLabSystemData    `json:"astro_lab,omitempty"`
	Aggregation *AggregationSystemData `json:"aggregation,omitempty"`

	Progress    *ConstructionProgress `json:"progress,omitempty"`
	Takeover    *Takeover             `json:"takeover,omitempty"`
	MiningQueue *MiningQueue          `json:"mining_queue,omitempty"`

	Location   Location `json:"location"`
	Storage    Storage  `json:"storage"`
	MaxStorage int      `json:"max_storage"`

	DockedTo       *int64 `json:"docked_to,omitempty"`
	DockedWorkbees int    `json:"docked_workbees"`
	TractoredBy    *int64 `json:"tractored_by,omitempty"`
	Tractoring     *int64 `json:"tractoring,omitempty"`

	Destroyed bool `json:"destroyed,omitempty"`
	Scrapped  bool `json:"scrapped,omitempty"` // Removed on save
}

// System returns the installed system of the given type.
func (s *Ship) System(t SystemType) (*System, error) {
	for _, sys := range s.Systems {
		if sys.Type == t {
			return sys, nil
		}
	}
	return nil, &NotFoundError{Type: t}
}

// HasSystem reports whether a system of the given type is installed.
func (s *Ship) HasSystem(t SystemType) bool {
	_, err := s.System(t)
	return err == nil
}

// IsSystemHealthy reports whether the system is installed and not destroyed.
func (s *Ship) IsSystemHealthy(t SystemType) bool {
	sys, err := s.System(t)
	return err == nil && sys.Healthy()
}

// IsSystemActive reports whether the system is installed and powered.
func (s *Ship) IsSystemActive(t SystemType) bool {
	sys, err := s.System(t)
	return err == nil && sys.Active()
}

// HasEnoughCrew reports whether the crew meets the minimum requirement.
func (s *Ship) HasEnoughCrew() bool { return s.Crew >= s.MinCrew }

// CloakActive reports whether the cloak is up.
func (s *Ship) CloakActive() bool { return s.IsSystemActive(SystemCloak) }

// IsTractoring reports whether the ship holds another ship in its tractor beam.
func (s *Ship) IsTractoring() bool { return s.Tractoring != nil }

// IsTractored reports whether the ship is held by another ship's tractor beam.
func (s *Ship) IsTractored() bool { return s.TractoredBy != nil }

// EpsUsage is the energy consumed per tick by active systems plus the
// alert-state surcharge.
func (s *Ship) EpsUsage() int {
	usage := s.AlertState.EnergyUsage()
	for _, sys := range s.Systems {
		if sys.Active() {
			usage += sys.EnergyCost
		}
	}
	return usage
}

// DamagedSystems returns systems below full health, highest priority first.
func (s *Ship) DamagedSystems(priority func(SystemType) int) []*System {
	var damaged []*System
	for _, sys := range s.Systems {
		if sys.Damaged() {
			damaged = append(damaged, sys)
		}
	}
	sort.SliceStable(damaged, func(i, j int) bool {
		return priority(damaged[i].Type) > priority(damaged[j].Type)
	})
	return damaged
}

// CanBeRepaired reports whether any hull or system damage remains.
func (s *Ship) CanBeRepaired() bool {
	if s.Hull < s.MaxHull {
		return true
	}
	for _, sys := range s.Systems {
		if sys.Damaged() {
			return true
		}
	}
	return false
}

// SetHull sets hull points, clamped to [0, MaxHull].
func (s *Ship) SetHull(hull int) {
	s.Hull = max(0, min(hull, s.MaxHull))
}

// FreeStorage is the remaining cargo capacity.
func (s *Ship) FreeStorage() int {
	return max(0, s.MaxStorage-s.Storage.Sum())
}

// ReactorWrapper returns the reactor model, or nil when no reactor is installed.
func (s *Ship) ReactorWrapper() *Reactor {
	if s.Reactor == nil {
		return nil
	}
	sys, err := s.System(s.Reactor.Type)
	if err != nil {
		return nil
	}
	return &Reactor{ship: s, system: sys, data: s.Reactor}
}
