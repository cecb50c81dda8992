package collision

import (
	gomath "math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/engine/flight"
	"github.com/Faultbox/skyrunner/internal/terrain"
	"github.com/Faultbox/skyrunner/pkg/math"
)

const epsilon = 1e-9

func testEnv() config.Environment {
	env := config.MountainEnvironment()
	env.LaunchPosition = [3]float64{5, 500, 11}
	return env
}

// floor is a 2000x2000 ground quad at y = 0.
func floor() *terrain.TileMesh {
	a := math.V3(-1000, 0, -1000)
	b := math.V3(-1000, 0, 1000)
	c := math.V3(1000, 0, -1000)
	d := math.V3(1000, 0, 1000)
	return terrain.NewTileMesh(terrain.TileKey{}, []terrain.Triangle{{A: a, B: b, C: c}, {A: c, B: b, C: d}})
}

// wall is a vertical quad in the plane z = at.
func wall(at float64) *terrain.TileMesh {
	a := math.V3(-100, -100, at)
	b := math.V3(-100, 100, at)
	c := math.V3(100, -100, at)
	d := math.V3(100, 100, at)
	return terrain.NewTileMesh(terrain.TileKey{X: 1}, []terrain.Triangle{{A: a, B: b, C: c}, {A: c, B: b, C: d}})
}

type unboundedMesh struct{ id string }

func (m unboundedMesh) ID() string                             { return m.id }
func (m unboundedMesh) Bounds() (terrain.Sphere, bool)         { return terrain.Sphere{}, false }
func (m unboundedMesh) Triangles() ([]terrain.Triangle, error) { return nil, nil }

type panickyMesh struct{}

func (panickyMesh) ID() string { return "panicky" }
func (panickyMesh) Bounds() (terrain.Sphere, bool) {
	return terrain.Sphere{Radius: 1e9}, true
}
func (panickyMesh) Triangles() ([]terrain.Triangle, error) { panic("buffer released") }

func craftAt(env config.Environment, pos math.Vec3, mode flight.SpeedMode) *flight.Craft {
	c := flight.NewCraft(env)
	c.Position = pos
	c.Mode = mode
	c.Speed = flight.Params(env.Speeds, mode).Speed
	return c
}

func TestEmptyTerrainNeverCollides(t *testing.T) {
	env := testEnv()
	d := NewDetector(env)
	cache, err := terrain.NewTileCache(4)
	if err != nil {
		t.Fatal(err)
	}

	sources := map[string]terrain.Source{
		"nil":         nil,
		"static":      terrain.Static{},
		"empty cache": cache,
	}
	positions := []math.Vec3{math.V3(0, 0, 0), math.V3(5, -3, 11), math.V3(1e6, 1e6, -1e6)}

	for name, src := range sources {
		for _, pos := range positions {
			craft := craftAt(env, pos, flight.Boost)
			res := d.Resolve(craft, craft.Snapshot(), src)
			if res.Collided() || craft.Position != pos {
				t.Errorf("%s at %v: got %v, position %v", name, pos, res.Outcome, craft.Position)
			}
		}
	}
}

func TestCollisionDisabled(t *testing.T) {
	env := testEnv()
	env.Terrain.Collision = false
	d := NewDetector(env)

	craft := craftAt(env, math.V3(5, 1, 11), flight.Base)
	if res := d.Resolve(craft, craft.Snapshot(), terrain.Static{floor()}); res.Collided() {
		t.Errorf("collision disabled, got %v", res.Outcome)
	}
}

func TestRespawnAfterCollision(t *testing.T) {
	env := testEnv()
	d := NewDetector(env)
	src := terrain.Static{floor()}

	craft := craftAt(env, math.V3(5, 3, 11), flight.Base)
	craft.Orientation = math.QuatFromYaw(0.5) // differs from launch
	speedBefore := craft.Speed

	res := d.Resolve(craft, craft.Snapshot(), src)

	if res.Outcome != Respawned {
		t.Fatalf("outcome = %v, want respawned", res.Outcome)
	}
	if !res.Probe.ApproxEqual(math.V3(0, -1, 0), epsilon) {
		t.Errorf("first matching probe = %v, want down", res.Probe)
	}
	if craft.Speed != speedBefore/2 {
		t.Errorf("speed = %v, want %v", craft.Speed, speedBefore/2)
	}
	if want := res.Hit.Point.Y + env.Terrain.ResetAltitude; gomath.Abs(craft.Position.Y-want) > epsilon {
		t.Errorf("altitude = %v, want %v", craft.Position.Y, want)
	}
	if gomath.Abs(craft.Position.X-5) > epsilon || gomath.Abs(craft.Position.Z-11) > epsilon {
		t.Errorf("respawn should be above the hit point, got %v", craft.Position)
	}
	if craft.Orientation != craft.LaunchOrientation {
		t.Errorf("orientation = %v, want launch orientation %v", craft.Orientation, craft.LaunchOrientation)
	}
	if craft.Mode != flight.Base {
		t.Errorf("mode = %v, want base", craft.Mode)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	env := testEnv()
	d := NewDetector(env)
	src := terrain.Static{floor()}

	craft := craftAt(env, math.V3(5, 3, 11), flight.Base)
	if res := d.Resolve(craft, craft.Snapshot(), src); !res.Collided() {
		t.Fatal("expected an initial collision")
	}

	resolved := *craft
	for range 3 {
		res := d.Resolve(craft, craft.Snapshot(), src)
		if res.Collided() {
			t.Fatalf("resolved state collided again: %v", res.Outcome)
		}
		if *craft != resolved {
			t.Fatalf("resolved craft changed: %+v", craft)
		}
	}

	clear := craftAt(env, math.V3(5, 40, 11), flight.Base)
	before := *clear
	d.Resolve(clear, clear.Snapshot(), src)
	if *clear != before {
		t.Error("craft clear of terrain should not move")
	}
}

func TestPushOutWithoutRespawn(t *testing.T) {
	env := testEnv()
	env.Terrain.Respawn = false
	d := NewDetector(env)
	src := terrain.Static{floor()}

	tests := []struct {
		mode   flight.SpeedMode
		factor float64
	}{
		{flight.Base, env.Terrain.PushFactor},
		{flight.Boost, env.Terrain.BoostPushFactor},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			craft := craftAt(env, math.V3(5, 3, 11), tt.mode)
			radius := flight.Params(env.Speeds, tt.mode).ProbeRadius

			res := d.Resolve(craft, craft.Snapshot(), src)
			if res.Outcome != PushedOut {
				t.Fatalf("outcome = %v, want pushed out", res.Outcome)
			}
			want := (radius - 3) * tt.factor
			if !res.PushOut.ApproxEqual(math.V3(0, want, 0), epsilon) {
				t.Errorf("push-out = %v, want (0, %v, 0)", res.PushOut, want)
			}
			if gomath.Abs(craft.Position.Y-(3+want)) > epsilon {
				t.Errorf("altitude = %v, want %v", craft.Position.Y, 3+want)
			}
		})
	}

	if env.Terrain.BoostPushFactor <= env.Terrain.PushFactor {
		t.Error("boost push factor should exceed base")
	}
}

func TestUnresolvedPenetrationReverts(t *testing.T) {
	env := testEnv()
	env.Terrain.Respawn = false
	d := NewDetector(env)
	src := terrain.Static{floor(), wall(13)}

	craft := craftAt(env, math.V3(5, 3, 11), flight.Base)
	prev := flight.Transform{Position: math.V3(5, 10, -20), Orientation: math.QuatIdentity()}

	res := d.Resolve(craft, prev, src)
	if res.Outcome != Reverted {
		t.Fatalf("outcome = %v, want reverted", res.Outcome)
	}
	if craft.Position != prev.Position || craft.Orientation != prev.Orientation {
		t.Errorf("craft at %v, want pre-tick transform %v", craft.Position, prev.Position)
	}
}

func TestBoostAddsLookAheadProbes(t *testing.T) {
	base := Probes(flight.Base)
	boost := Probes(flight.Boost)
	hyper := Probes(flight.Hyperspace)

	if len(base) != 9 || len(boost) != 13 || len(hyper) != 13 {
		t.Errorf("probe counts base=%d boost=%d hyper=%d", len(base), len(boost), len(hyper))
	}
	if len(Probes(flight.Slow)) != 9 {
		t.Error("slow flight should not add look-ahead probes")
	}
	for i, p := range boost {
		if gomath.Abs(p.Length()-1) > epsilon {
			t.Errorf("probe %d not unit: %v", i, p)
		}
	}
	if base[0] != math.Up.Negate() {
		t.Error("the downward probe goes first")
	}

	// A wall just off the forward-left diagonal is only seen at speed
	env := testEnv()
	env.Terrain.Respawn = false
	d := NewDetector(env)
	diag := math.V3(1, 0, 1).Normalize()
	center := math.V3(0, 500, 0).Add(diag.Scale(8))
	side := math.V3(-1, 0, 1).Normalize()
	a := center.Add(side.Scale(-5)).Add(math.V3(0, -5, 0))
	b := center.Add(side.Scale(5)).Add(math.V3(0, -5, 0))
	c := center.Add(math.V3(0, 6, 0))
	panel := terrain.Static{terrain.NewTileMesh(terrain.TileKey{Z: 5}, []terrain.Triangle{{A: a, B: b, C: c}})}

	slow := craftAt(env, math.V3(0, 500, 0), flight.Base)
	if res := d.Resolve(slow, slow.Snapshot(), panel); res.Collided() {
		t.Errorf("base probes should miss the diagonal panel, got %v", res.Outcome)
	}
	fast := craftAt(env, math.V3(0, 500, 0), flight.Boost)
	if res := d.Resolve(fast, fast.Snapshot(), panel); !res.Collided() {
		t.Error("boost look-ahead should hit the diagonal panel")
	}
}

func TestUnboundedMeshSkippedAndLoggedOnce(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	env := testEnv()
	d := NewDetector(env)
	d.SetLogger(zap.New(core))

	src := terrain.Static{unboundedMesh{id: "loose"}, floor()}
	for range 5 {
		craft := craftAt(env, math.V3(5, 50, 11), flight.Base)
		if res := d.Resolve(craft, craft.Snapshot(), src); res.Collided() {
			t.Fatalf("unexpected collision: %v", res.Outcome)
		}
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d errors, want 1", logs.Len())
	}
}

func TestPanickingMeshIsAMiss(t *testing.T) {
	env := testEnv()
	d := NewDetector(env)

	craft := craftAt(env, math.V3(5, 3, 11), flight.Base)
	before := *craft
	res := d.Resolve(craft, craft.Snapshot(), terrain.Static{panickyMesh{}})
	if res.Collided() || *craft != before {
		t.Errorf("panicking mesh should be treated as a miss, got %v", res.Outcome)
	}
}
