// Package config handles simulator configuration loading and management.
package config

import (
	"fmt"
	"sort"
)

// Config holds all simulator settings.
type Config struct {
	Simulation   SimulationConfig       `yaml:"simulation"`
	Environments map[string]Environment `yaml:"environments"`
	Streaming    StreamingConfig        `yaml:"streaming"`
	Replay       ReplayConfig           `yaml:"replay"`
	Logging      LoggingConfig          `yaml:"logging"`
}

// SimulationConfig selects the active environment and drives the frame loop.
type SimulationConfig struct {
	Environment string `yaml:"environment"`
	TickRate    int    `yaml:"tick_rate"` // Frames per second; 0 runs unthrottled
	MaxTicks    int    `yaml:"max_ticks"` // 0 runs until exit is requested
}

// StreamingConfig controls the procedural terrain tile streamer.
type StreamingConfig struct {
	CacheTiles  int `yaml:"cache_tiles"` // LRU capacity
	Radius      int `yaml:"radius"`      // Tiles loaded around the craft in each direction
	Workers     int `yaml:"workers"`     // Parallel tile builders
	Resolution  int `yaml:"resolution"`  // Grid cells per tile edge
	EveryNTicks int `yaml:"every_ticks"` // How often the craft position is sent to the streamer
}

// ReplayConfig holds input recording settings.
type ReplayConfig struct {
	Record string `yaml:"record"` // Path to write a recording to
	Play   string `yaml:"play"`   // Path of a recording to replay
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Environment is the per-environment constant set the tick pipeline is parameterized by.
type Environment struct {
	Name            string      `yaml:"name"`
	LaunchPosition  [3]float64  `yaml:"launch_position"`
	LaunchHeading   float64     `yaml:"launch_heading"` // Yaw in degrees about world up
	AllowHyperspace bool        `yaml:"allow_hyperspace"`
	Speeds          SpeedTable  `yaml:"speeds"`
	RollRate        float64     `yaml:"roll_rate"` // Radians per tick; independent of speed mode
	Sensitivity     Sensitivity `yaml:"sensitivity"`
	Camera          Camera      `yaml:"camera"`
	Terrain         Terrain     `yaml:"terrain"`
	Wings           Wings       `yaml:"wings"`
	WarningFrames   int         `yaml:"warning_frames"`
}

// ModeParams are the values selected by a speed mode.
type ModeParams struct {
	Speed       float64 `yaml:"speed"`        // Units per tick
	TurnRate    float64 `yaml:"turn_rate"`    // Pitch/yaw radians per tick
	ProbeRadius float64 `yaml:"probe_radius"` // Collision envelope radius
	FOV         float64 `yaml:"fov"`          // Camera field of view target, degrees
}

// SpeedTable maps each speed mode to its parameters.
type SpeedTable struct {
	Base       ModeParams `yaml:"base"`
	Boost      ModeParams `yaml:"boost"`
	Slow       ModeParams `yaml:"slow"`
	Hyperspace ModeParams `yaml:"hyperspace"`
}

// Sensitivity scales the turn rate per axis.
type Sensitivity struct {
	Pitch float64 `yaml:"pitch"`
	Yaw   float64 `yaml:"yaw"`
	Roll  float64 `yaml:"roll"`
}

// OffsetTable holds camera offsets in craft-local space for each mode.
type OffsetTable struct {
	Base       [3]float64 `yaml:"base"`
	Boost      [3]float64 `yaml:"boost"`
	Slow       [3]float64 `yaml:"slow"`
	Hyperspace [3]float64 `yaml:"hyperspace"`
	Collision  [3]float64 `yaml:"collision"`
}

// Camera configures the camera rig.
type Camera struct {
	ThirdPerson OffsetTable `yaml:"third_person"`
	Cockpit     OffsetTable `yaml:"cockpit"`

	// Smoothing factors in (0, 1]; each channel group keeps its own rate.
	OffsetSmoothing float64 `yaml:"offset_smoothing"`
	LagSmoothing    float64 `yaml:"lag_smoothing"`
	LocalSmoothing  float64 `yaml:"local_smoothing"`
	FOVSmoothing    float64 `yaml:"fov_smoothing"`
	FollowSmoothing float64 `yaml:"follow_smoothing"`

	// Target magnitudes in radians while the matching input is held.
	PitchLag      float64 `yaml:"pitch_lag"`
	YawLag        float64 `yaml:"yaw_lag"`
	LocalPitchLag float64 `yaml:"local_pitch_lag"`
	LocalYawLag   float64 `yaml:"local_yaw_lag"`
}

// Terrain configures collision, hover assist and the procedural tile generator.
type Terrain struct {
	Collision   bool    `yaml:"collision"`
	HoverAssist bool    `yaml:"hover_assist"`
	Generator   string  `yaml:"generator"` // none, flat, rolling, blocks, craters
	TileSize    float64 `yaml:"tile_size"`
	BaseHeight  float64 `yaml:"base_height"`
	Amplitude   float64 `yaml:"amplitude"`
	Wavelength  float64 `yaml:"wavelength"`

	HoverHeight   float64 `yaml:"hover_height"`
	HoverCeiling  float64 `yaml:"hover_ceiling"` // Multiple of HoverHeight above which the craft is pulled down
	HoverLift     float64 `yaml:"hover_lift"`    // Fraction of the deficit applied per tick
	HoverSink     float64 `yaml:"hover_sink"`    // Fraction of the excess applied per tick
	ProbeDistance float64 `yaml:"probe_distance"`
	MaxSlopeDeg   float64 `yaml:"max_slope_deg"`
	SlopeBlend    float64 `yaml:"slope_blend"`

	PushFactor      float64 `yaml:"push_factor"`
	BoostPushFactor float64 `yaml:"boost_push_factor"`
	Respawn         bool    `yaml:"respawn"`
	ResetAltitude   float64 `yaml:"reset_altitude"`
}

// Wings configures the retractable wing animation.
type Wings struct {
	TransitionFrames int        `yaml:"transition_frames"`
	Open             [4]float64 `yaml:"open"`
	Closed           [4]float64 `yaml:"closed"`
}

// Env returns the named environment, or the active one when name is empty.
func (c *Config) Env(name string) (Environment, error) {
	if name == "" {
		name = c.Simulation.Environment
	}
	env, ok := c.Environments[name]
	if !ok {
		return Environment{}, fmt.Errorf("unknown environment %q (have %v)", name, c.EnvironmentNames())
	}
	if env.Name == "" {
		env.Name = name
	}
	if err := env.Validate(); err != nil {
		return Environment{}, fmt.Errorf("environment %q: %w", name, err)
	}
	return env, nil
}

// EnvironmentNames returns the configured environment names in sorted order.
func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the constraints the tick pipeline relies on.
func (e Environment) Validate() error {
	if e.Wings.TransitionFrames <= 0 {
		return fmt.Errorf("wings.transition_frames must be positive, got %d", e.Wings.TransitionFrames)
	}
	factors := map[string]float64{
		"offset_smoothing": e.Camera.OffsetSmoothing,
		"lag_smoothing":    e.Camera.LagSmoothing,
		"local_smoothing":  e.Camera.LocalSmoothing,
		"fov_smoothing":    e.Camera.FOVSmoothing,
		"follow_smoothing": e.Camera.FollowSmoothing,
	}
	for name, f := range factors {
		if f <= 0 || f > 1 {
			return fmt.Errorf("camera.%s must be in (0, 1], got %v", name, f)
		}
	}
	if e.Terrain.Collision && e.Terrain.PushFactor <= 0 {
		return fmt.Errorf("terrain.push_factor must be positive when collision is enabled")
	}
	if e.Terrain.HoverAssist && (e.Terrain.HoverHeight <= 0 || e.Terrain.ProbeDistance <= 0) {
		return fmt.Errorf("terrain.hover_height and probe_distance must be positive when hover assist is enabled")
	}
	if e.Terrain.HoverAssist && e.Terrain.HoverCeiling < 1 {
		return fmt.Errorf("terrain.hover_ceiling must be at least 1 when hover assist is enabled, got %v", e.Terrain.HoverCeiling)
	}
	return nil
}
