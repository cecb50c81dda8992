// Package collision detects terrain penetration around the craft and resolves it.
package collision

import (
	"go.uber.org/zap"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/engine/flight"
	"github.com/Faultbox/skyrunner/internal/logger"
	"github.com/Faultbox/skyrunner/internal/terrain"
	"github.com/Faultbox/skyrunner/pkg/math"
)

// Outcome is how a tick's collision check ended.
type Outcome int

const (
	// None means no penetration was found.
	None Outcome = iota
	// PushedOut means the craft was pushed clear and respawn is disabled.
	PushedOut
	// Respawned means the craft was moved above the collision point.
	Respawned
	// Reverted means resolution failed and the pre-tick transform was restored.
	Reverted
)

func (o Outcome) String() string {
	switch o {
	case None:
		return "none"
	case PushedOut:
		return "pushed_out"
	case Respawned:
		return "respawned"
	case Reverted:
		return "reverted"
	}
	return "unknown"
}

// Result describes a resolved collision.
type Result struct {
	Outcome Outcome
	Probe   math.Vec3 // World-space direction of the probe that hit
	Hit     terrain.Hit
	PushOut math.Vec3
}

// Collided reports whether a penetration was found this tick.
func (r Result) Collided() bool {
	return r.Outcome != None
}

var (
	down    = math.Up.Negate()
	forward = math.Forward
	left    = math.Left
	right   = math.Left.Negate()
	back    = math.Forward.Negate()
)

// baseProbes are craft-relative directions cast every tick, in order.
var baseProbes = []math.Vec3{
	down,
	forward,
	left,
	right,
	back,
	down.Add(forward).Normalize(),
	down.Add(back).Normalize(),
	down.Add(left).Normalize(),
	down.Add(right).Normalize(),
}

// lookAheadProbes are added at high speed.
var lookAheadProbes = []math.Vec3{
	forward.Add(left).Normalize(),
	forward.Add(right).Normalize(),
	forward.Add(math.Up).Normalize(),
	forward.Add(down).Normalize(),
}

// Probes returns the craft-relative probe directions for mode.
func Probes(mode flight.SpeedMode) []math.Vec3 {
	if !mode.Fast() {
		return baseProbes
	}
	out := make([]math.Vec3, 0, len(baseProbes)+len(lookAheadProbes))
	out = append(out, baseProbes...)
	return append(out, lookAheadProbes...)
}

// Detector checks the craft envelope against the terrain mesh set.
type Detector struct {
	env  config.Environment
	log  *zap.Logger
	once logger.Once
}

// NewDetector creates a detector for env.
func NewDetector(env config.Environment) *Detector {
	return &Detector{env: env, log: logger.Named("collision")}
}

// SetLogger replaces the detector's logger.
func (d *Detector) SetLogger(l *zap.Logger) {
	d.log = l
}

// Resolve checks the post-move craft against src and resolves any penetration.
// prev is the pre-tick transform, restored when resolution cannot clear the terrain.
// A nil or empty source never collides.
func (d *Detector) Resolve(craft *flight.Craft, prev flight.Transform, src terrain.Source) Result {
	if craft == nil || src == nil || !d.env.Terrain.Collision {
		return Result{}
	}
	meshes := d.snapshot(src)
	if len(meshes) == 0 {
		return Result{}
	}

	radius := flight.Params(d.env.Speeds, craft.Mode).ProbeRadius
	dir, hit, ok := d.penetration(meshes, craft, radius)
	if !ok {
		return Result{}
	}

	res := Result{Outcome: PushedOut, Probe: dir, Hit: hit}
	normal := dir.Negate()
	if hit.HasNormal {
		normal = hit.Normal
	}
	factor := d.env.Terrain.PushFactor
	if craft.Mode.Fast() {
		factor = d.env.Terrain.BoostPushFactor
	}
	res.PushOut = normal.Scale((radius - hit.Distance) * factor)
	craft.Position = craft.Position.Add(res.PushOut)
	craft.Speed *= 0.5

	if d.env.Terrain.Respawn {
		craft.Respawn(respawnPoint(hit, d.env.Terrain.ResetAltitude))
		res.Outcome = Respawned
	}

	d.log.Info("collision",
		zap.Stringer("outcome", res.Outcome),
		zap.String("mesh", hit.MeshID),
		zap.Float64("distance", hit.Distance),
	)

	radius = flight.Params(d.env.Speeds, craft.Mode).ProbeRadius
	if _, _, still := d.penetration(meshes, craft, radius); still {
		craft.Restore(prev)
		res.Outcome = Reverted
		d.log.Warn("collision unresolved, reverted to previous transform")
	}
	return res
}

// respawnPoint lifts the hit point along the surface normal, or world up when
// the normal is missing or faces downward.
func respawnPoint(hit terrain.Hit, altitude float64) math.Vec3 {
	up := math.Up
	if hit.HasNormal && hit.Normal.Y > 0 {
		up = hit.Normal
	}
	return hit.Point.Add(up.Scale(altitude))
}

// penetration casts the probe set from the craft and returns the first probe
// whose nearest hit lies inside the envelope.
func (d *Detector) penetration(meshes []terrain.Mesh, craft *flight.Craft, radius float64) (math.Vec3, terrain.Hit, bool) {
	env := terrain.Sphere{Center: craft.Position, Radius: radius}
	candidates := terrain.Cull(meshes, env, d.skipUnbounded)
	if len(candidates) == 0 {
		return math.Vec3{}, terrain.Hit{}, false
	}

	world := craft.Matrix()
	for _, local := range Probes(craft.Mode) {
		dir := world.TransformDirection(local).Normalize()
		hit, ok, err := terrain.Probe(candidates, terrain.Ray{Origin: craft.Position, Direction: dir}, radius)
		if err != nil {
			d.log.Debug("probe failed", zap.Error(err))
			continue
		}
		if ok && hit.Distance < radius {
			return dir, hit, true
		}
	}
	return math.Vec3{}, terrain.Hit{}, false
}

func (d *Detector) skipUnbounded(m terrain.Mesh) {
	id := m.ID()
	d.once.Error(d.log, "bounds:"+id, "mesh has no bounding volume, skipped", zap.String("mesh", id))
}

// snapshot reads the current mesh set, treating a failing source as empty.
func (d *Detector) snapshot(src terrain.Source) (meshes []terrain.Mesh) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Debug("terrain snapshot failed", zap.Any("panic", r))
			meshes = nil
		}
	}()
	return src.Meshes()
}
