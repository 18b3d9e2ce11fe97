package ship

import "fmt"

// SystemType identifies a kind of ship system.
type SystemType uint8

const (
	SystemHull SystemType = iota + 1
	SystemShields
	SystemEps
	SystemImpulseDrive
	SystemWarpCore
	SystemComputer
	SystemPhaser
	SystemTorpedo
	SystemCloak
	SystemLongRangeSensors
	SystemShortRangeSensors
	SystemWarpDrive
	SystemTractorBeam
	SystemDeflector
	SystemTroopQuarters
	SystemAstroLaboratory
	SystemUplink
	SystemFusionReactor
	SystemTracker
	SystemSingularityReactor
	SystemLifeSupport
	SystemBussardCollector
	SystemAggregationSystem
)

var systemTypeKeys = map[SystemType]string{
	SystemHull:               "hull",
	SystemShields:            "shields",
	SystemEps:                "eps",
	SystemImpulseDrive:       "impulse_drive",
	SystemWarpCore:           "warp_core",
	SystemComputer:           "computer",
	SystemPhaser:             "phaser",
	SystemTorpedo:            "torpedo",
	SystemCloak:              "cloak",
	SystemLongRangeSensors:   "long_range_sensors",
	SystemShortRangeSensors:  "short_range_sensors",
	SystemWarpDrive:          "warp_drive",
	SystemTractorBeam:        "tractor_beam",
	SystemDeflector:          "deflector",
	SystemTroopQuarters:      "troop_quarters",
	SystemAstroLaboratory:    "astro_laboratory",
	SystemUplink:             "uplink",
	SystemFusionReactor:      "fusion_reactor",
	SystemTracker:            "tracker",
	SystemSingularityReactor: "singularity_reactor",
	SystemLifeSupport:        "life_support",
	SystemBussardCollector:   "bussard_collector",
	SystemAggregationSystem:  "aggregation_system",
}

var systemTypeDescriptions = map[SystemType]string{
	SystemHull:               "Hull",
	SystemShields:            "Shields",
	SystemEps:                "EPS",
	SystemImpulseDrive:       "Impulse drive",
	SystemWarpCore:           "Warp core",
	SystemComputer:           "Computer",
	SystemPhaser:             "Energy weapon",
	SystemTorpedo:            "Torpedo launcher",
	SystemCloak:              "Cloak",
	SystemLongRangeSensors:   "Long-range sensors",
	SystemShortRangeSensors:  "Short-range sensors",
	SystemWarpDrive:          "Warp drive",
	SystemTractorBeam:        "Tractor beam",
	SystemDeflector:          "Deflector",
	SystemTroopQuarters:      "Troop quarters",
	SystemAstroLaboratory:    "Astrometric laboratory",
	SystemUplink:             "Uplink",
	SystemFusionReactor:      "Fusion reactor",
	SystemTracker:            "Tracker device",
	SystemSingularityReactor: "Singularity reactor",
	SystemLifeSupport:        "Life support",
	SystemBussardCollector:   "Bussard collector",
	SystemAggregationSystem:  "Aggregation system",
}

// Key is the stable identifier used in catalog and storage files.
func (t SystemType) Key() string {
	if k, ok := systemTypeKeys[t]; ok {
		return k
	}
	return fmt.Sprintf("system_%d", uint8(t))
}

func (t SystemType) String() string { return t.Key() }

// Description is the owner-facing system name.
func (t SystemType) Description() string {
	if d, ok := systemTypeDescriptions[t]; ok {
		return d
	}
	return t.Key()
}

// IsReactor reports whether the system produces energy.
func (t SystemType) IsReactor() bool {
	return t == SystemWarpCore || t == SystemFusionReactor || t == SystemSingularityReactor
}

// ParseSystemType resolves a system key.
func ParseSystemType(key string) (SystemType, error) {
	for t, k := range systemTypeKeys {
		if k == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown system type %q", key)
}

// UnmarshalText parses a system key as used in catalog files.
func (t *SystemType) UnmarshalText(b []byte) error {
	parsed, err := ParseSystemType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText renders the system key.
func (t SystemType) MarshalText() ([]byte, error) { return []byte(t.Key()), nil }

// AllSystemTypes lists every known system type in declaration order.
func AllSystemTypes() []SystemType {
	all := make([]SystemType, 0, len(systemTypeKeys))
	for t := SystemHull; t <= SystemAggregationSystem; t++ {
		all = append(all, t)
	}
	return all
}
