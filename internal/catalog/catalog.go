// Package catalog provides the static lookup tables of the game: system
// definitions, commodities, commodity conversions, factions and rumps.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/talgya/starbase/internal/ship"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Catalog holds every static table the tick engine reads.
type Catalog struct {
	Systems     []SystemDef       `yaml:"systems"`
	Commodities []Commodity       `yaml:"commodities"`
	Conversions []Conversion      `yaml:"conversions"`
	Factions    []Faction         `yaml:"factions"`
	Rumps       []ship.Rump       `yaml:"rumps"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Bussard     BussardConfig     `yaml:"bussard"`
	Repair      RepairConfig      `yaml:"repair"`

	systems     map[ship.SystemType]SystemDef
	commodities map[int]Commodity
	conversions map[int]Conversion
	rumps       map[int64]ship.Rump
}

// SystemDef is the static definition of a system type.
type SystemDef struct {
	Type         ship.SystemType `yaml:"type" json:"type"`
	Priority     int             `yaml:"priority" json:"priority"` // Lower shuts down first
	EnergyCost   int             `yaml:"energy_cost" json:"energy_cost"`
	DefaultMode  ship.Mode       `yaml:"default_mode" json:"default_mode"`
	RequiresCrew bool            `yaml:"requires_crew" json:"requires_crew"`
}

// Commodity is a storable good.
type Commodity struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Conversion is one aggregation-system recipe.
type Conversion struct {
	Input        int `yaml:"input" json:"input"`
	Output       int `yaml:"output" json:"output"`
	InputAmount  int `yaml:"input_amount" json:"input_amount"`
	OutputAmount int `yaml:"output_amount" json:"output_amount"`
}

// Faction is a playable faction.
type Faction struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// AggregationConfig tunes the aggregation system.
type AggregationConfig struct {
	DoublingFactionID int `yaml:"doubling_faction_id"` // Modules of this faction convert twice the amounts
}

// Range is an inclusive integer range.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// BussardConfig holds the per-tick harvest draw ranges.
type BussardConfig struct {
	Standard Range `yaml:"standard"`
	Faction  Range `yaml:"faction"` // Faction-restricted modules
}

// RepairConfig tunes passive station repair.
type RepairConfig struct {
	SparePartCommodity int `yaml:"spare_part_commodity"`
	HullPerSparePart   int `yaml:"hull_per_spare_part"`
	PartsPerSystem     int `yaml:"parts_per_system"`
}

// Default returns the embedded catalog. It panics if the embedded file is invalid.
func Default() *Catalog {
	c, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path returns the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultsYAML)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse validates and decodes a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.systems = make(map[ship.SystemType]SystemDef, len(c.Systems))
	for _, d := range c.Systems {
		if _, dup := c.systems[d.Type]; dup {
			return fmt.Errorf("duplicate system definition %s", d.Type)
		}
		c.systems[d.Type] = d
	}

	c.commodities = make(map[int]Commodity, len(c.Commodities))
	for _, cm := range c.Commodities {
		if _, dup := c.commodities[cm.ID]; dup {
			return fmt.Errorf("duplicate commodity %d", cm.ID)
		}
		c.commodities[cm.ID] = cm
	}

	c.conversions = make(map[int]Conversion, len(c.Conversions))
	for _, cv := range c.Conversions {
		if _, ok := c.commodities[cv.Input]; !ok {
			return fmt.Errorf("conversion input %d is not a commodity", cv.Input)
		}
		if _, ok := c.commodities[cv.Output]; !ok {
			return fmt.Errorf("conversion output %d is not a commodity", cv.Output)
		}
		if _, dup := c.conversions[cv.Input]; dup {
			return fmt.Errorf("duplicate conversion for input %d", cv.Input)
		}
		c.conversions[cv.Input] = cv
	}

	c.rumps = make(map[int64]ship.Rump, len(c.Rumps))
	for _, r := range c.Rumps {
		if _, dup := c.rumps[r.ID]; dup {
			return fmt.Errorf("duplicate rump %d", r.ID)
		}
		c.rumps[r.ID] = r
	}

	if c.Bussard.Standard.Min > c.Bussard.Standard.Max || c.Bussard.Faction.Min > c.Bussard.Faction.Max {
		return fmt.Errorf("bussard range min exceeds max")
	}
	return nil
}

// System returns the definition of a system type.
func (c *Catalog) System(t ship.SystemType) (SystemDef, bool) {
	d, ok := c.systems[t]
	return d, ok
}

// Priority returns the shutdown priority of a system type. Unknown types
// rank lowest and are shut down first.
func (c *Catalog) Priority(t ship.SystemType) int {
	if d, ok := c.systems[t]; ok {
		return d.Priority
	}
	return 0
}

// DefaultMode is the mode a repaired or newly built system returns to.
func (c *Catalog) DefaultMode(t ship.SystemType) ship.Mode {
	if d, ok := c.systems[t]; ok {
		return d.DefaultMode
	}
	return ship.ModeOff
}

// RequiresCrew reports whether the system only runs with sufficient crew.
func (c *Catalog) RequiresCrew(t ship.SystemType) bool {
	d, ok := c.systems[t]
	return ok && d.RequiresCrew
}

// NewSystem builds an installed system at full health in its default mode.
func (c *Catalog) NewSystem(t ship.SystemType, module *ship.Module) *ship.System {
	d := c.systems[t]
	return &ship.System{
		Type:       t,
		Mode:       c.DefaultMode(t),
		Status:     100,
		EnergyCost: d.EnergyCost,
		Module:     module,
	}
}

// Conversion returns the aggregation recipe for an input commodity.
func (c *Catalog) Conversion(input int) (Conversion, bool) {
	cv, ok := c.conversions[input]
	return cv, ok
}

// CommodityName returns the display name of a commodity.
func (c *Catalog) CommodityName(id int) string {
	if cm, ok := c.commodities[id]; ok {
		return cm.Name
	}
	return fmt.Sprintf("commodity %d", id)
}

// Rump returns a rump by ID.
func (c *Catalog) Rump(id int64) (ship.Rump, bool) {
	r, ok := c.rumps[id]
	return r, ok
}

// WorkbeeRumpIDs lists the rumps counted as docked workbees, ascending.
func (c *Catalog) WorkbeeRumpIDs() []int64 {
	var ids []int64
	for id, r := range c.rumps {
		if r.IsWorkbee {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
