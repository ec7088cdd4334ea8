// Package config provides configuration loading and access for the heat pipeline.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all pipeline configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Grid      GridConfig      `yaml:"grid"`
	Field     FieldConfig     `yaml:"field"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Color     ColorConfig     `yaml:"color"`
	Engine    EngineConfig    `yaml:"engine"`
	Emitter   EmitterConfig   `yaml:"emitter"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the world rectangle mapped onto the grid.
// Samples are world-space positions inside (or slightly outside) this rectangle.
type WorldConfig struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// GridConfig holds the field resolution in cells.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// FieldConfig holds scalar field parameters.
type FieldConfig struct {
	Decay float64 `yaml:"decay"` // Per-tick multiplicative attenuation, in (0,1)
}

// KernelConfig holds splat kernel parameters.
type KernelConfig struct {
	Radius    int     `yaml:"radius"`    // Influence radius in cells (hard cutoff)
	Sigma     float64 `yaml:"sigma"`     // Gaussian falloff width in cells
	Intensity float64 `yaml:"intensity"` // Deposited heat per sample per second
}

// ColorConfig holds the false-color mapping parameters.
// Ceiling is a fixed reference, deliberately not the running field maximum,
// so a single hot cell cannot rescale the whole display between frames.
type ColorConfig struct {
	Ceiling float64 `yaml:"ceiling"`
	Alpha   uint8   `yaml:"alpha"`
	Cold    []uint8 `yaml:"cold"`
	Mid     []uint8 `yaml:"mid"`
	Hot     []uint8 `yaml:"hot"`
}

// EngineConfig holds tick scheduling parameters.
type EngineConfig struct {
	DT      float64 `yaml:"dt"`      // Seconds per tick
	Workers int     `yaml:"workers"` // Row-parallel decay/resolve workers; 0 = all logical CPUs, 1 = single-threaded
}

// EmitterConfig selects and parameterizes the sample source.
type EmitterConfig struct {
	Kind  string      `yaml:"kind"` // "swarm" or "orbit"
	Swarm SwarmConfig `yaml:"swarm"`
	Orbit OrbitConfig `yaml:"orbit"`
}

// SwarmConfig holds wandering-walker emitter parameters.
type SwarmConfig struct {
	Count      int     `yaml:"count"`
	Speed      float64 `yaml:"speed"`       // World units per second
	Rate       float64 `yaml:"rate"`        // Samples per second per walker
	TurnJitter float64 `yaml:"turn_jitter"` // Heading noise, radians per sqrt(second)
}

// OrbitConfig holds Lissajous-path emitter parameters.
type OrbitConfig struct {
	Rate   float64 `yaml:"rate"`
	FreqX  float64 `yaml:"freq_x"`
	FreqY  float64 `yaml:"freq_y"`
	Margin float64 `yaml:"margin"` // Fraction of world extent kept clear of the path
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"`
	PerfWindow  int     `yaml:"perf_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Engine.DT as float32
	WorldMinX float32
	WorldMinY float32
	WorldMaxX float32
	WorldMaxY float32
	WorldW32  float32 // World extent along x
	WorldH32  float32 // World extent along y
	CellW32   float32 // World units per cell along x
	CellH32   float32 // World units per cell along y
	ScreenW32 float32
	ScreenH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values against the pipeline's construction
// requirements, so a bad config file fails at load rather than deep inside
// engine wiring.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("config: grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.World.MaxX <= c.World.MinX || c.World.MaxY <= c.World.MinY {
		return fmt.Errorf("config: degenerate world rectangle [(%g,%g),(%g,%g)]",
			c.World.MinX, c.World.MinY, c.World.MaxX, c.World.MaxY)
	}
	if c.Field.Decay <= 0 || c.Field.Decay >= 1 {
		return fmt.Errorf("config: field decay must be in (0,1), got %g", c.Field.Decay)
	}
	if c.Kernel.Radius < 0 {
		return fmt.Errorf("config: kernel radius must be non-negative, got %d", c.Kernel.Radius)
	}
	if c.Kernel.Sigma <= 0 {
		return fmt.Errorf("config: kernel sigma must be positive, got %g", c.Kernel.Sigma)
	}
	if c.Kernel.Intensity < 0 {
		return fmt.Errorf("config: kernel intensity must be non-negative, got %g", c.Kernel.Intensity)
	}
	if c.Color.Ceiling <= 0 {
		return fmt.Errorf("config: color ceiling must be positive, got %g", c.Color.Ceiling)
	}
	for name, stop := range map[string][]uint8{"cold": c.Color.Cold, "mid": c.Color.Mid, "hot": c.Color.Hot} {
		if len(stop) != 3 {
			return fmt.Errorf("config: color stop %q must have 3 channels, got %d", name, len(stop))
		}
	}
	if c.Engine.DT <= 0 {
		return fmt.Errorf("config: engine dt must be positive, got %g", c.Engine.DT)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Engine.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	c.Derived.WorldMinX = float32(c.World.MinX)
	c.Derived.WorldMinY = float32(c.World.MinY)
	c.Derived.WorldMaxX = float32(c.World.MaxX)
	c.Derived.WorldMaxY = float32(c.World.MaxY)
	c.Derived.WorldW32 = float32(c.World.MaxX - c.World.MinX)
	c.Derived.WorldH32 = float32(c.World.MaxY - c.World.MinY)

	if c.Grid.Width > 0 {
		c.Derived.CellW32 = c.Derived.WorldW32 / float32(c.Grid.Width)
	}
	if c.Grid.Height > 0 {
		c.Derived.CellH32 = c.Derived.WorldH32 / float32(c.Grid.Height)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
