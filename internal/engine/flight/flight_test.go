package flight

import (
	gomath "math"
	"math/rand"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/input"
	"github.com/Faultbox/skyrunner/internal/terrain"
	"github.com/Faultbox/skyrunner/pkg/math"
)

const epsilon = 1e-9

func testEnv() config.Environment {
	env := config.MountainEnvironment()
	env.LaunchPosition = [3]float64{0, 0, 0}
	return env
}

// rotationAngle returns the angle of the rotation q in radians.
func rotationAngle(q math.Quat) float64 {
	return 2 * gomath.Acos(math.Clamp(gomath.Abs(q.W), -1, 1))
}

// plane returns a 1000x1000 quad through point with the given normal.
// The quad is shifted so point does not fall on the shared diagonal.
func plane(point, normal math.Vec3) terrain.Static {
	n := normal.Normalize()
	u := math.Left
	if gomath.Abs(n.Dot(u)) > 0.9 {
		u = math.Forward
	}
	u = u.Sub(n.Scale(n.Dot(u))).Normalize()
	v := n.Cross(u)

	corner := func(a, b float64) math.Vec3 {
		return point.Add(u.Scale(a + 13)).Add(v.Scale(b + 29))
	}
	tris := []terrain.Triangle{
		{A: corner(-500, -500), B: corner(500, -500), C: corner(-500, 500)},
		{A: corner(500, -500), B: corner(500, 500), C: corner(-500, 500)},
	}
	return terrain.Static{terrain.NewTileMesh(terrain.TileKey{}, tris)}
}

type panicSource struct{}

func (panicSource) Meshes() []terrain.Mesh { panic("tile set mutated") }

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name  string
		raw   input.Raw
		hyper bool
		want  SpeedMode
	}{
		{"idle", input.Raw{}, true, Base},
		{"boost", input.Raw{Boost: true}, true, Boost},
		{"slow", input.Raw{Slow: true}, true, Slow},
		{"boost beats slow", input.Raw{Boost: true, Slow: true}, true, Boost},
		{"hyperspace beats boost", input.Raw{Hyperspace: true, Boost: true, Slow: true}, true, Hyperspace},
		{"hyperspace not allowed", input.Raw{Hyperspace: true}, false, Base},
		{"hyperspace not allowed falls to boost", input.Raw{Hyperspace: true, Boost: true}, false, Boost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectMode(input.State{Raw: tt.raw}, tt.hyper); got != tt.want {
				t.Errorf("SelectMode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModeSwitchIsAtomic(t *testing.T) {
	env := testEnv()
	env.Terrain.HoverAssist = false
	c := NewController(env)

	tests := []struct {
		raw  input.Raw
		mode SpeedMode
	}{
		{input.Raw{PitchDown: true}, Base},
		{input.Raw{PitchDown: true, Boost: true}, Boost},
		{input.Raw{PitchDown: true, Slow: true}, Slow},
		{input.Raw{PitchDown: true}, Base},
	}

	for _, tt := range tests {
		craft := NewCraft(env)
		step := c.Update(craft, input.State{Raw: tt.raw}, nil)
		want := Params(env.Speeds, tt.mode)

		if craft.Mode != tt.mode || step.Mode != tt.mode {
			t.Errorf("mode = %v, want %v", craft.Mode, tt.mode)
		}
		if craft.Speed != want.Speed {
			t.Errorf("%v: speed = %v, want %v", tt.mode, craft.Speed, want.Speed)
		}
		if got := rotationAngle(craft.Orientation); gomath.Abs(got-want.TurnRate*env.Sensitivity.Pitch) > epsilon {
			t.Errorf("%v: pitch step = %v, want %v", tt.mode, got, want.TurnRate)
		}
		if d := craft.Position.Distance(craft.LaunchPosition); gomath.Abs(d-want.Speed) > epsilon {
			t.Errorf("%v: moved %v, want %v", tt.mode, d, want.Speed)
		}
	}
}

func TestRollRateIgnoresSpeedMode(t *testing.T) {
	env := testEnv()
	env.Terrain.HoverAssist = false
	c := NewController(env)

	var first math.Quat
	for i, raw := range []input.Raw{
		{RollLeft: true},
		{RollLeft: true, Boost: true},
		{RollLeft: true, Slow: true},
	} {
		craft := NewCraft(env)
		c.Update(craft, input.State{Raw: raw}, nil)
		if i == 0 {
			first = craft.Orientation
			if got := rotationAngle(first); gomath.Abs(got-env.RollRate) > epsilon {
				t.Fatalf("roll step = %v, want %v", got, env.RollRate)
			}
			continue
		}
		q := craft.Orientation
		if gomath.Abs(q.X*first.X+q.Y*first.Y+q.Z*first.Z+q.W*first.W-1) > epsilon {
			t.Errorf("roll under %v differs: %v vs %v", craft.Mode, craft.Orientation, first)
		}
	}
}

func TestOrientationStaysUnit(t *testing.T) {
	env := testEnv()
	env.Terrain.HoverAssist = false
	c := NewController(env)
	craft := NewCraft(env)
	rng := rand.New(rand.NewSource(7))

	for tick := range 5000 {
		raw := input.Raw{
			PitchUp:   rng.Intn(2) == 0,
			PitchDown: rng.Intn(3) == 0,
			YawLeft:   rng.Intn(2) == 0,
			YawRight:  rng.Intn(3) == 0,
			RollLeft:  rng.Intn(2) == 0,
			RollRight: rng.Intn(3) == 0,
			Boost:     rng.Intn(4) == 0,
			Slow:      rng.Intn(4) == 0,
		}
		c.Update(craft, input.State{Raw: raw}, nil)
		if l := craft.Orientation.Length(); gomath.Abs(l-1) > 1e-12 {
			t.Fatalf("tick %d: |q| = %v", tick, l)
		}
	}
}

func TestYawTurnsLeft(t *testing.T) {
	env := testEnv()
	env.Terrain.HoverAssist = false
	c := NewController(env)
	craft := NewCraft(env)

	c.Update(craft, input.State{Raw: input.Raw{YawLeft: true}}, nil)
	if craft.Heading.X <= 0 {
		t.Errorf("yaw left should swing the nose toward +X, heading %v", craft.Heading)
	}

	craft = NewCraft(env)
	c.Update(craft, input.State{Raw: input.Raw{PitchUp: true}}, nil)
	if craft.Heading.Y <= 0 {
		t.Errorf("pitch up should raise the nose, heading %v", craft.Heading)
	}
}

func TestRollFollowsInput(t *testing.T) {
	env := testEnv()
	env.Terrain.HoverAssist = false
	c := NewController(env)

	tests := []struct {
		name string
		raw  input.Raw
		sign float64 // Sign of the left wing's height after rolling
	}{
		{"left", input.Raw{RollLeft: true}, -1},
		{"right", input.Raw{RollRight: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			craft := NewCraft(env)
			for range 10 {
				c.Update(craft, input.State{Raw: tt.raw}, nil)
			}
			wing := craft.Orientation.Rotate(math.Left)
			up := craft.Orientation.Rotate(math.Up)
			if wing.Y*tt.sign <= 0 {
				t.Errorf("left wing = %v, want height with sign %v", wing, tt.sign)
			}
			// The canopy leans toward the lowered wing
			if up.X*tt.sign >= 0 {
				t.Errorf("up = %v, want lean with sign %v on X", up, -tt.sign)
			}
		})
	}
}

func TestSlopeBlendFollowsRidge(t *testing.T) {
	env := testEnv()
	env.Terrain.SlopeBlend = 0.3
	env.Terrain.MaxSlopeDeg = 40
	c := NewController(env)

	normal := math.V3(0, 0.5, -gomath.Sqrt(3)/2) // 60 degrees, rising ahead
	src := plane(math.V3(0, -50, 0), normal)

	craft := NewCraft(env)
	before := craft.Forward()
	step := c.Update(craft, input.State{}, src)

	if !step.HasGround || !step.SlopeAdjusted {
		t.Fatalf("expected slope adjustment, got %+v", step)
	}
	n := step.Ground.Normal
	preAngle := before.Angle(n)
	postAngle := step.Forward.Angle(n)
	if gomath.Abs(postAngle-gomath.Pi/2) >= gomath.Abs(preAngle-gomath.Pi/2) {
		t.Errorf("forward should turn toward the ridge line: angle to normal %v -> %v", preAngle, postAngle)
	}
	if gomath.Abs(step.Forward.Length()-1) > epsilon {
		t.Errorf("blended forward not unit: %v", step.Forward)
	}
}

func TestGentleSlopeIsNotAdjusted(t *testing.T) {
	env := testEnv()
	c := NewController(env)
	src := plane(math.V3(0, -80, 0), math.V3(0, 1, 0.2))

	craft := NewCraft(env)
	step := c.Update(craft, input.State{}, src)
	if !step.HasGround || step.SlopeAdjusted {
		t.Errorf("gentle slope should leave forward alone: %+v", step)
	}
	if !step.Forward.ApproxEqual(math.Forward, epsilon) {
		t.Errorf("forward = %v, want +Z", step.Forward)
	}
}

func TestHoverNudges(t *testing.T) {
	env := testEnv()
	tr := env.Terrain
	c := NewController(env)
	floor := plane(math.V3(0, 0, 0), math.Up)

	tests := []struct {
		name     string
		altitude float64
		want     float64
	}{
		{"below hover height", 10, (tr.HoverHeight - 10) * tr.HoverLift},
		{"inside band", tr.HoverHeight * 1.2, 0},
		{"above ceiling", 300, -(300 - tr.HoverHeight*tr.HoverCeiling) * tr.HoverSink},
		{"out of probe range", tr.ProbeDistance + 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			craft := NewCraft(env)
			craft.Position = math.V3(0, tt.altitude, 0)
			step := c.Update(craft, input.State{}, floor)

			if gomath.Abs(step.Lift-tt.want) > 1e-9 {
				t.Errorf("lift = %v, want %v", step.Lift, tt.want)
			}
			if gomath.Abs(craft.Position.Y-(tt.altitude+tt.want)) > 1e-9 {
				t.Errorf("altitude = %v, want %v", craft.Position.Y, tt.altitude+tt.want)
			}
			// Damped, never snapped
			if gomath.Abs(step.Lift) >= gomath.Abs(tt.altitude-tr.HoverHeight) && tt.want != 0 {
				t.Errorf("nudge %v should be a fraction of the gap", step.Lift)
			}
		})
	}
}

func TestAssistSkippedWithoutTerrain(t *testing.T) {
	env := testEnv()
	c := NewController(env)

	for _, src := range []terrain.Source{nil, terrain.Static{}, panicSource{}} {
		craft := NewCraft(env)
		step := c.Update(craft, input.State{}, src)
		if step.HasGround || step.Lift != 0 {
			t.Errorf("source %T: unexpected assist %+v", src, step)
		}
		if !craft.Position.ApproxEqual(math.V3(0, 0, env.Speeds.Base.Speed), epsilon) {
			t.Errorf("source %T: position %v", src, craft.Position)
		}
	}
}

func TestNilCraftWarnsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := NewController(testEnv())
	c.SetLogger(zap.New(core))

	for range 10 {
		if step := c.Update(nil, input.State{}, nil); step != (Step{}) {
			t.Fatalf("expected empty step, got %+v", step)
		}
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d warnings, want 1", logs.Len())
	}
}

func TestRidgeDirection(t *testing.T) {
	if _, ok := RidgeDirection(math.Up, math.Forward); ok {
		t.Error("level ground has no ridge")
	}

	n := math.V3(1, 1, 0).Normalize()
	r, ok := RidgeDirection(n, math.V3(0.1, 0, -1))
	if !ok {
		t.Fatal("expected a ridge")
	}
	if gomath.Abs(r.Y) > epsilon || gomath.Abs(r.Dot(n)) > epsilon {
		t.Errorf("ridge %v should be horizontal and perpendicular to the normal", r)
	}
	if r.Z >= 0 {
		t.Errorf("ridge %v should point to the forward side", r)
	}
}
