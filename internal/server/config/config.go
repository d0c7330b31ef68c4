package config

import (
	"errors"
	"fmt"
)

// Dimension configures one independently lit dimension.
type Dimension struct {
	Name      string `json:"name"`
	SkyLight  bool   `json:"sky_light"`
	Generator string `json:"generator,omitempty"` // overrides GeneratorType when set
}

// Config holds the server configuration.
type Config struct {
	Seed            int64       `json:"seed"`
	GeneratorType   string      `json:"generator_type"` // "hills" or "flat"
	WorldRadius     int         `json:"world_radius"`   // chunks loaded around the origin
	TickRate        int         `json:"tick_rate"`      // ticks per second
	LightBudget     int         `json:"light_budget"`   // light updates per dimension per tick
	AmbientDarkness int         `json:"ambient_darkness"`
	SaveInterval    int         `json:"save_interval"` // seconds between saves, 0 saves on shutdown only
	RetainOnUnload  bool        `json:"retain_on_unload"`
	BlockData       string      `json:"block_data"` // registered version or minecraft-data directory
	Dimensions      []Dimension `json:"dimensions"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		GeneratorType: "hills",
		WorldRadius:   4,
		TickRate:      20,
		LightBudget:   10000,
		SaveInterval:  300,
		BlockData:     "builtin-1.8",
		Dimensions: []Dimension{
			{Name: "overworld", SkyLight: true},
			{Name: "nether", SkyLight: false, Generator: "flat"},
		},
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["generator"] {
		cfg.GeneratorType = fromFile.GeneratorType
	}
	if !explicitFlags["world-radius"] {
		cfg.WorldRadius = fromFile.WorldRadius
	}
	if !explicitFlags["tick-rate"] {
		cfg.TickRate = fromFile.TickRate
	}
	if !explicitFlags["light-budget"] {
		cfg.LightBudget = fromFile.LightBudget
	}
	if !explicitFlags["ambient-darkness"] {
		cfg.AmbientDarkness = fromFile.AmbientDarkness
	}
	if !explicitFlags["save-interval"] {
		cfg.SaveInterval = fromFile.SaveInterval
	}
	if !explicitFlags["retain-on-unload"] {
		cfg.RetainOnUnload = fromFile.RetainOnUnload
	}
	if !explicitFlags["block-data"] {
		cfg.BlockData = fromFile.BlockData
	}
	if len(fromFile.Dimensions) > 0 {
		cfg.Dimensions = fromFile.Dimensions
	}
}

// GeneratorFor returns the generator type of a dimension.
func (c *Config) GeneratorFor(d Dimension) string {
	if d.Generator != "" {
		return d.Generator
	}
	return c.GeneratorType
}

// Validate reports the first setting the server cannot run with.
func (c *Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate %d must be positive", c.TickRate)
	}
	if c.LightBudget <= 0 {
		return fmt.Errorf("light budget %d must be positive", c.LightBudget)
	}
	if c.AmbientDarkness < 0 || c.AmbientDarkness > 15 {
		return fmt.Errorf("ambient darkness %d outside 0..15", c.AmbientDarkness)
	}
	if c.WorldRadius < 0 {
		return fmt.Errorf("world radius %d is negative", c.WorldRadius)
	}
	if c.SaveInterval < 0 {
		return fmt.Errorf("save interval %d is negative", c.SaveInterval)
	}
	if len(c.Dimensions) == 0 {
		return errors.New("no dimensions configured")
	}
	seen := make(map[string]bool, len(c.Dimensions))
	for _, d := range c.Dimensions {
		if d.Name == "" {
			return errors.New("dimension without a name")
		}
		if seen[d.Name] {
			return fmt.Errorf("dimension %q configured twice", d.Name)
		}
		seen[d.Name] = true
		switch g := c.GeneratorFor(d); g {
		case "hills", "flat":
		default:
			return fmt.Errorf("dimension %q: unknown generator %q", d.Name, g)
		}
	}
	return nil
}
