// Package config loads tickd settings from YAML over embedded defaults.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// AdminKeyEnv is the environment variable holding the API admin bearer key.
const AdminKeyEnv = "STARBASE_ADMIN_KEY"

// Config holds all tickd settings.
type Config struct {
	Engine      EngineConfig   `yaml:"engine"`
	Data        DataConfig     `yaml:"data"`
	API         APIConfig      `yaml:"api"`
	Universe    UniverseConfig `yaml:"universe"`
	Rules       RulesConfig    `yaml:"rules"`
	Log         LogConfig      `yaml:"log"`
	CatalogPath string         `yaml:"catalog_path"`

	// AdminKey is read from the environment only.
	AdminKey string `yaml:"-"`
}

// EngineConfig drives the turn loop.
type EngineConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Speed       float64       `yaml:"speed"`
	RollupEvery uint64        `yaml:"rollup_every"`
}

// DataConfig locates on-disk state.
type DataConfig struct {
	Dir          string `yaml:"dir"`
	DBPath       string `yaml:"db_path"`
	ArchiveDir   string `yaml:"archive_dir"`
	TelemetryDir string `yaml:"telemetry_dir"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"` // Requests per second per client
	RateBurst int     `yaml:"rate_burst"`
}

// UniverseConfig seeds a fresh database.
type UniverseConfig struct {
	Seed      int64 `yaml:"seed"`
	Width     int   `yaml:"width"`
	Height    int   `yaml:"height"`
	DemoFleet int   `yaml:"demo_fleet"`
}

// RulesConfig holds game-rule constants.
type RulesConfig struct {
	AstroTurnsToFinish     uint64 `yaml:"astro_turns_to_finish"`
	TakeoverTurns          uint64 `yaml:"takeover_turns"`
	TrackerDistanceDivisor int    `yaml:"tracker_distance_divisor"`
}

// LogConfig selects the slog level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the embedded defaults, then overlays the file at path if given.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.AdminKey = os.Getenv(AdminKeyEnv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.Interval <= 0 {
		return fmt.Errorf("engine.interval must be positive")
	}
	if c.Engine.Speed < 0 {
		return fmt.Errorf("engine.speed must not be negative")
	}
	if c.Rules.TrackerDistanceDivisor <= 0 {
		return fmt.Errorf("rules.tracker_distance_divisor must be positive")
	}
	if c.API.RateLimit <= 0 || c.API.RateBurst <= 0 {
		return fmt.Errorf("api rate limit and burst must be positive")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WriteYAML saves the effective configuration, e.g. as a starting tickd.yaml.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
