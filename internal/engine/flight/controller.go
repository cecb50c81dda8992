package flight

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/input"
	"github.com/Faultbox/skyrunner/internal/logger"
	"github.com/Faultbox/skyrunner/internal/terrain"
	"github.com/Faultbox/skyrunner/pkg/math"
)

// Step reports what one controller update did.
type Step struct {
	Mode    SpeedMode
	Params  config.ModeParams
	Forward math.Vec3 // Direction actually flown, after slope adjustment

	Ground        terrain.Hit
	HasGround     bool
	SlopeAdjusted bool
	Lift          float64 // Vertical hover nudge applied this tick
}

// Controller integrates one tick of craft motion for an environment.
type Controller struct {
	env  config.Environment
	log  *zap.Logger
	once logger.Once
}

// NewController creates a controller bound to env.
func NewController(env config.Environment) *Controller {
	return &Controller{env: env, log: logger.Named("flight")}
}

// SetLogger replaces the controller's logger.
func (c *Controller) SetLogger(l *zap.Logger) {
	c.log = l
}

// Update advances craft by one tick. A nil craft is a no-op, reported once.
// src may be nil; the hover and slope assist is then skipped.
func (c *Controller) Update(craft *Craft, in input.State, src terrain.Source) Step {
	if craft == nil {
		c.once.Warn(c.log, "craft", "flight update skipped: craft not initialized")
		return Step{}
	}
	c.once.Forget("craft")

	mode := SelectMode(in, c.env.AllowHyperspace)
	p := Params(c.env.Speeds, mode)
	craft.Mode = mode
	craft.Speed = p.Speed

	craft.Orientation = craft.Orientation.Mul(c.rotation(in, p)).Normalize()

	step := Step{Mode: mode, Params: p}
	forward := craft.Forward()
	if c.env.Terrain.HoverAssist && src != nil {
		forward = c.assist(craft, forward, src, &step)
	}

	step.Forward = forward
	craft.Heading = forward
	craft.Position = craft.Position.Add(forward.Scale(craft.Speed))
	return step
}

// rotation builds this tick's body-frame increment, composed roll ∘ pitch ∘ yaw.
// Pitch and yaw use the mode's turn rate; roll always uses the environment roll rate.
func (c *Controller) rotation(in input.State, p config.ModeParams) math.Quat {
	sens := c.env.Sensitivity
	pitch := math.QuatFromAxisAngle(math.Left, in.Pitch()*sens.Pitch*p.TurnRate)
	yaw := math.QuatFromAxisAngle(math.Up, in.Yaw()*sens.Yaw*p.TurnRate)
	roll := math.QuatFromAxisAngle(math.Forward, in.Roll()*sens.Roll*c.env.RollRate)
	return roll.Mul(pitch).Mul(yaw)
}

// assist runs the downward probe: blends forward along steep slopes and
// nudges the craft toward the hover band.
func (c *Controller) assist(craft *Craft, forward math.Vec3, src terrain.Source, step *Step) math.Vec3 {
	t := c.env.Terrain
	ray := terrain.NewRay(craft.Position, math.Up.Negate())

	hit, ok, err := c.probe(src, ray, t.ProbeDistance)
	if err != nil {
		c.log.Debug("hover probe failed", zap.Error(err))
		return forward
	}
	if !ok {
		return forward
	}
	step.Ground = hit
	step.HasGround = true

	if hit.HasNormal && hit.Normal.Angle(math.Up) > math.Radians(t.MaxSlopeDeg) {
		if ridge, ok := RidgeDirection(hit.Normal, forward); ok {
			forward = forward.Lerp(ridge, t.SlopeBlend).Normalize()
			step.SlopeAdjusted = true
		}
	}

	ceiling := t.HoverHeight * t.HoverCeiling
	switch {
	case hit.Distance < t.HoverHeight:
		step.Lift = (t.HoverHeight - hit.Distance) * t.HoverLift
	case hit.Distance > ceiling:
		step.Lift = -(hit.Distance - ceiling) * t.HoverSink
	}
	craft.Position.Y += step.Lift
	return forward
}

func (c *Controller) probe(src terrain.Source, ray terrain.Ray, dist float64) (hit terrain.Hit, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			hit, ok = terrain.Hit{}, false
			err = fmt.Errorf("%w: %v", terrain.ErrProbePanic, r)
		}
	}()
	meshes := terrain.AlongRay(src.Meshes(), ray, dist, nil)
	return terrain.Probe(meshes, ray, dist)
}

// RidgeDirection returns the horizontal direction perpendicular to the slope
// normal, on the same side as forward. Returns false on level ground.
func RidgeDirection(normal, forward math.Vec3) (math.Vec3, bool) {
	ridge := normal.Cross(math.Up)
	if ridge.LengthSq() < 1e-12 {
		return math.Vec3{}, false
	}
	ridge = ridge.Normalize()
	if ridge.Dot(forward) < 0 {
		ridge = ridge.Negate()
	}
	return ridge, true
}
