// Package flight integrates the craft's orientation and position from input each tick.
package flight

import (
	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/engine/wings"
	"github.com/Faultbox/skyrunner/pkg/math"
)

// Craft is the controllable vehicle. It is owned by one simulation and
// mutated only by the flight controller, the collision detector and explicit resets.
type Craft struct {
	Position    math.Vec3
	Orientation math.Quat // Unit quaternion
	Mode        SpeedMode
	Speed       float64 // Units per tick
	Wings       wings.State
	FirstPerson bool
	Heading     math.Vec3 // Forward vector used by the last move

	LaunchPosition    math.Vec3
	LaunchOrientation math.Quat
}

// Transform is a position and orientation pair.
type Transform struct {
	Position    math.Vec3
	Orientation math.Quat
}

// NewCraft creates a craft at rest at the environment's launch point.
func NewCraft(env config.Environment) *Craft {
	pos := math.FromArray(env.LaunchPosition)
	rot := math.QuatFromYaw(math.Radians(env.LaunchHeading))
	return &Craft{
		Position:          pos,
		Orientation:       rot,
		Mode:              Base,
		Wings:             wings.NewState(wings.Open, env.Wings),
		Heading:           rot.Rotate(math.Forward),
		LaunchPosition:    pos,
		LaunchOrientation: rot,
	}
}

// Forward returns the craft's forward axis in world space.
func (c *Craft) Forward() math.Vec3 {
	return c.Orientation.Rotate(math.Forward)
}

// Matrix returns the craft's world matrix.
func (c *Craft) Matrix() math.Mat4 {
	return math.Compose(c.Position, c.Orientation)
}

// Snapshot captures the current transform.
func (c *Craft) Snapshot() Transform {
	return Transform{Position: c.Position, Orientation: c.Orientation}
}

// Restore puts the craft back at t.
func (c *Craft) Restore(t Transform) {
	c.Position = t.Position
	c.Orientation = t.Orientation
}

// Respawn places the craft at pos with its launch orientation in base mode.
// Speed is left to the caller.
func (c *Craft) Respawn(pos math.Vec3) {
	c.Position = pos
	c.Orientation = c.LaunchOrientation
	c.Mode = Base
}
