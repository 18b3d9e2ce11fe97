// Universe generation using layered simplex noise.
// A density layer places regions, star systems and resource fields; a second
// layer decides which gas a field holds.
package universe

import (
	"fmt"
	"math/rand/v2"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/starbase/internal/engine"
	"github.com/talgya/starbase/internal/ship"
)

// Commodities harvested from resource fields.
const (
	CommodityHydrogen  = 1100
	CommodityHelium    = 1101
	CommodityNebulaGas = 1102
)

const (
	regionSize     = 20   // Sectors per region edge
	systemStride   = 6    // Spacing of star system candidates
	systemLevel    = 0.56 // Density needed for a star system
	fieldStride    = 3    // Spacing of resource field candidates
	fieldLevel     = 0.52 // Density needed for a resource field
	regionEntryIDs = 1000
	systemEntryIDs = 2000
)

// GenConfig holds universe generation parameters.
type GenConfig struct {
	Width     int
	Height    int
	Seed      int64 // 0 = random
	DemoFleet int   // Number of player ships to create
}

// DefaultGenConfig returns a small universe for local runs.
func DefaultGenConfig() GenConfig {
	return GenConfig{Width: 120, Height: 120, Seed: 42, DemoFleet: 12}
}

// StarSystem is a star system placed on the outer map.
type StarSystem struct {
	ship.SystemLocation
	CX, CY int
}

// Region is a rectangular part of the outer map, bounds inclusive.
type Region struct {
	ship.MapRegion
	X0, Y0, X1, Y1 int
}

// Contains reports whether the sector lies in the region.
func (r Region) Contains(cx, cy int) bool {
	return cx >= r.X0 && cx <= r.X1 && cy >= r.Y0 && cy <= r.Y1
}

// Universe is a generated map.
type Universe struct {
	Width, Height int
	Seed          int64
	Systems       []StarSystem
	Regions       []Region
	Fields        []*ship.LocationMining
	Entries       []engine.DatabaseEntry
}

// Generate creates regions, star systems and resource fields.
func Generate(cfg GenConfig) *Universe {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int64()
	}

	density := opensimplex.NewNormalized(seed)
	gas := opensimplex.NewNormalized(seed + 1)
	rng := rand.New(rand.NewPCG(uint64(seed), 100))

	u := &Universe{Width: cfg.Width, Height: cfg.Height, Seed: seed}
	u.placeRegions(density)
	u.placeSystems(density, rng)
	u.placeFields(density, gas)
	return u
}

var regionKinds = []struct {
	level  float64
	name   string
	points int
}{
	{0.58, "Nebula", 3},
	{0.50, "Gas cloud", 2},
	{0, "Deep space", 1},
}

var sectorLabels = []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta", "Iota", "Kappa"}

func (u *Universe) placeRegions(density opensimplex.Noise) {
	id := int64(1)
	for y0 := 1; y0 <= u.Height; y0 += regionSize {
		for x0 := 1; x0 <= u.Width; x0 += regionSize {
			x1 := min(x0+regionSize-1, u.Width)
			y1 := min(y0+regionSize-1, u.Height)
			d := octaveNoise(density, float64(x0+x1)/2, float64(y0+y1)/2, 4, 0.04, 0.5)

			kind := regionKinds[len(regionKinds)-1]
			for _, k := range regionKinds {
				if d >= k.level {
					kind = k
					break
				}
			}
			label := sectorLabels[int(id-1)%len(sectorLabels)]
			desc := fmt.Sprintf("%s %s-%d", kind.name, label, (id-1)/int64(len(sectorLabels))+1)

			entry := engine.DatabaseEntry{ID: regionEntryIDs + id, Description: desc, Points: kind.points}
			u.Entries = append(u.Entries, entry)
			u.Regions = append(u.Regions, Region{
				MapRegion: ship.MapRegion{ID: id, Description: desc, DatabaseEntryID: entry.ID},
				X0:        x0,
				Y0:        y0,
				X1:        x1,
				Y1:        y1,
			})
			id++
		}
	}
}

var starNames = []string{
	"Vega", "Rigel", "Deneb", "Altair", "Antares", "Capella", "Sirius", "Procyon",
	"Arcturus", "Spica", "Pollux", "Regulus", "Mira", "Hadar", "Mimosa", "Achernar",
}

func (u *Universe) placeSystems(density opensimplex.Noise, rng *rand.Rand) {
	id := int64(1)
	for cy := systemStride / 2; cy <= u.Height; cy += systemStride {
		for cx := systemStride / 2; cx <= u.Width; cx += systemStride {
			if octaveNoise(density, float64(cx), float64(cy), 4, 0.04, 0.5) < systemLevel {
				continue
			}
			// Jitter inside the stride so systems do not sit on a grid.
			x := clamp(cx+rng.IntN(systemStride)-systemStride/2, 1, u.Width)
			y := clamp(cy+rng.IntN(systemStride)-systemStride/2, 1, u.Height)

			name := starNames[int(id-1)%len(starNames)]
			if round := (id - 1) / int64(len(starNames)); round > 0 {
				name = fmt.Sprintf("%s %d", name, round+1)
			}

			entry := engine.DatabaseEntry{ID: systemEntryIDs + id, Description: "System " + name, Points: 5}
			u.Entries = append(u.Entries, entry)
			u.Systems = append(u.Systems, StarSystem{
				SystemLocation: ship.SystemLocation{ID: id, Name: name, DatabaseEntryID: entry.ID},
				CX:             x,
				CY:             y,
			})
			id++
		}
	}
}

func (u *Universe) placeFields(density, gas opensimplex.Noise) {
	for cy := 1; cy <= u.Height; cy += fieldStride {
		for cx := 1; cx <= u.Width; cx += fieldStride {
			d := octaveNoise(density, float64(cx), float64(cy), 4, 0.04, 0.5)
			if d < fieldLevel {
				continue
			}
			g := octaveNoise(gas, float64(cx), float64(cy), 2, 0.08, 0.5)
			amount := 500 + int(d*1500)
			u.Fields = append(u.Fields, &ship.LocationMining{
				CX:           cx,
				CY:           cy,
				CommodityID:  fieldCommodity(g),
				MaxAmount:    amount,
				ActualAmount: amount,
			})
		}
	}
}

func fieldCommodity(g float64) int {
	switch {
	case g < 0.4:
		return CommodityHydrogen
	case g < 0.6:
		return CommodityHelium
	default:
		return CommodityNebulaGas
	}
}

// RegionAt returns the region containing the sector, or nil.
func (u *Universe) RegionAt(cx, cy int) *Region {
	for i := range u.Regions {
		if u.Regions[i].Contains(cx, cy) {
			return &u.Regions[i]
		}
	}
	return nil
}

// Location builds the ship location for a sector. A sector holding a star
// system is inside that system.
func (u *Universe) Location(cx, cy int) ship.Location {
	loc := ship.Location{CX: cx, CY: cy}
	for i := range u.Systems {
		if u.Systems[i].CX == cx && u.Systems[i].CY == cy {
			sys := u.Systems[i].SystemLocation
			loc.System = &sys
			return loc
		}
	}
	if r := u.RegionAt(cx, cy); r != nil {
		region := r.MapRegion
		loc.Region = &region
	}
	return loc
}

// FieldCounts returns the number of resource fields per commodity.
func FieldCounts(u *Universe) map[int]int {
	counts := make(map[int]int)
	for _, f := range u.Fields {
		counts[f.CommodityID]++
	}
	return counts
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
