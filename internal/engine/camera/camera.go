// Package camera provides the chase camera rig that follows the craft.
package camera

import (
	gomath "math"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/engine/flight"
	"github.com/Faultbox/skyrunner/internal/input"
	"github.com/Faultbox/skyrunner/pkg/math"
)

// Channel identifies one independently smoothed camera value.
type Channel int

const (
	OffsetX Channel = iota
	OffsetY
	OffsetZ
	PitchOffset
	YawOffset
	LocalPitch
	LocalYaw
	FOV
	numChannels
)

var channelNames = [numChannels]string{
	"offset_x", "offset_y", "offset_z", "pitch_offset", "yaw_offset", "local_pitch", "local_yaw", "fov",
}

func (c Channel) String() string {
	if c < 0 || c >= numChannels {
		return "unknown"
	}
	return channelNames[c]
}

// targets holds everything a channel target can be selected from.
type targets struct {
	offset [3]float64
	pitch  float64 // Input sign, -1..1
	yaw    float64
	fov    float64
}

// channelSpec pairs a smoothing factor with the selector for the channel's target.
type channelSpec struct {
	factor func(config.Camera) float64
	target func(config.Camera, targets) float64
}

var channels = [numChannels]channelSpec{
	OffsetX: {
		factor: func(c config.Camera) float64 { return c.OffsetSmoothing },
		target: func(_ config.Camera, t targets) float64 { return t.offset[0] },
	},
	OffsetY: {
		factor: func(c config.Camera) float64 { return c.OffsetSmoothing },
		target: func(_ config.Camera, t targets) float64 { return t.offset[1] },
	},
	OffsetZ: {
		factor: func(c config.Camera) float64 { return c.OffsetSmoothing },
		target: func(_ config.Camera, t targets) float64 { return t.offset[2] },
	},
	PitchOffset: {
		factor: func(c config.Camera) float64 { return c.LagSmoothing },
		target: func(c config.Camera, t targets) float64 { return t.pitch * c.PitchLag },
	},
	YawOffset: {
		factor: func(c config.Camera) float64 { return c.LagSmoothing },
		target: func(c config.Camera, t targets) float64 { return t.yaw * c.YawLag },
	},
	LocalPitch: {
		factor: func(c config.Camera) float64 { return c.LocalSmoothing },
		target: func(c config.Camera, t targets) float64 { return t.pitch * c.LocalPitchLag },
	},
	LocalYaw: {
		factor: func(c config.Camera) float64 { return c.LocalSmoothing },
		target: func(c config.Camera, t targets) float64 { return t.yaw * c.LocalYawLag },
	},
	FOV: {
		factor: func(c config.Camera) float64 { return c.FOVSmoothing },
		target: func(_ config.Camera, t targets) float64 { return t.fov },
	},
}

// turnAround flips the rig to look along the craft's forward axis.
var turnAround = math.QuatFromAxisAngle(math.Up, gomath.Pi)

// Rig is the layered chase camera. Each channel keeps a current and a target
// value; current only moves by one exponential step per update.
type Rig struct {
	cfg    config.Camera
	speeds config.SpeedTable

	current [numChannels]float64
	target  [numChannels]float64

	position    math.Vec3
	orientation math.Quat
	placed      bool
	collision   bool
}

// NewRig creates a rig resting on the base third-person targets.
func NewRig(cfg config.Camera, speeds config.SpeedTable) *Rig {
	r := &Rig{cfg: cfg, speeds: speeds, orientation: turnAround}
	r.selectTargets(flight.Base, false, input.State{})
	r.current = r.target
	return r
}

// NotifyCollision makes the next update target the collision offset.
func (r *Rig) NotifyCollision() {
	r.collision = true
}

// Update advances every channel one step and recomposes the camera transform.
func (r *Rig) Update(craft *flight.Craft, in input.State) {
	if craft == nil {
		return
	}

	r.selectTargets(craft.Mode, craft.FirstPerson, in)
	for ch := range numChannels {
		f := channels[ch].factor(r.cfg)
		r.current[ch] += (r.target[ch] - r.current[ch]) * f
	}

	local := math.QuatFromAxisAngle(math.Up, r.current[LocalYaw]).
		Mul(math.QuatFromAxisAngle(math.Left, r.current[LocalPitch]))
	offset := local.Rotate(r.Offset())
	goal := craft.Matrix().TransformPoint(offset)

	if !r.placed {
		r.position = goal
		r.placed = true
	} else {
		r.position = r.position.Lerp(goal, r.cfg.FollowSmoothing)
	}

	r.orientation = craft.Orientation.
		Mul(math.QuatFromAxisAngle(math.Left, r.current[PitchOffset])).
		Mul(math.QuatFromAxisAngle(math.Up, r.current[YawOffset])).
		Mul(math.QuatFromAxisAngle(math.Left, r.current[LocalPitch])).
		Mul(math.QuatFromAxisAngle(math.Up, r.current[LocalYaw])).
		Mul(turnAround).
		Normalize()
}

// selectTargets fills the target column. A pending collision overrides the
// mode offset once.
func (r *Rig) selectTargets(mode flight.SpeedMode, firstPerson bool, in input.State) {
	table := r.cfg.ThirdPerson
	if firstPerson {
		table = r.cfg.Cockpit
	}
	t := targets{
		offset: flight.Offset(table, mode),
		pitch:  in.Pitch(),
		yaw:    in.Yaw(),
		fov:    flight.Params(r.speeds, mode).FOV,
	}
	if r.collision {
		t.offset = table.Collision
		r.collision = false
	}

	for ch := range numChannels {
		r.target[ch] = channels[ch].target(r.cfg, t)
	}
}

// Current returns the smoothed value of ch.
func (r *Rig) Current(ch Channel) float64 {
	return r.current[ch]
}

// Target returns the value ch is converging to.
func (r *Rig) Target(ch Channel) float64 {
	return r.target[ch]
}

// Offset returns the smoothed craft-local camera offset.
func (r *Rig) Offset() math.Vec3 {
	return math.V3(r.current[OffsetX], r.current[OffsetY], r.current[OffsetZ])
}

// TargetOffset returns the craft-local offset the rig is converging to.
func (r *Rig) TargetOffset() math.Vec3 {
	return math.V3(r.target[OffsetX], r.target[OffsetY], r.target[OffsetZ])
}

// Position returns the camera position in world space.
func (r *Rig) Position() math.Vec3 {
	return r.position
}

// Orientation returns the camera orientation in world space.
func (r *Rig) Orientation() math.Quat {
	return r.orientation
}

// FOV returns the smoothed field of view in degrees.
func (r *Rig) FOV() float64 {
	return r.current[FOV]
}

// Matrix returns the camera's world matrix.
func (r *Rig) Matrix() math.Mat4 {
	return math.Compose(r.position, r.orientation)
}

// View returns the world-to-camera matrix, the inverse of Matrix.
func (r *Rig) View() math.Mat4 {
	inv := r.orientation.Conjugate()
	return math.Compose(inv.Rotate(r.position).Negate(), inv)
}
