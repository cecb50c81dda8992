// Package sim composes the per-tick flight pipeline for one environment.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/brunoga/deep"
	"go.uber.org/zap"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/engine/camera"
	"github.com/Faultbox/skyrunner/internal/engine/collision"
	"github.com/Faultbox/skyrunner/internal/engine/flight"
	"github.com/Faultbox/skyrunner/internal/engine/wings"
	"github.com/Faultbox/skyrunner/internal/input"
	"github.com/Faultbox/skyrunner/internal/logger"
	"github.com/Faultbox/skyrunner/internal/terrain"
	"github.com/Faultbox/skyrunner/pkg/math"
)

var (
	// ErrTickInProgress is returned when Tick is called while another tick runs.
	ErrTickInProgress = errors.New("sim: tick already in progress")
	// ErrTickFailed is returned when a tick panicked; state is left at the last good tick.
	ErrTickFailed = errors.New("sim: tick failed")
)

// CollisionWarning is the HUD message raised on a collision.
const CollisionWarning = "Collision detected!"

// VisualRig is the renderer-side craft model. Its methods run inside a tick
// and must not call back into the simulation other than Tick.
type VisualRig interface {
	IsFirstPerson() bool
	SetWingPose(wings.Pose)
	ToggleView()
}

// Notifier displays transient HUD warnings.
type Notifier interface {
	ShowWarning(msg string, frames int)
}

// Frame is the output of one tick for the renderer.
type Frame struct {
	Tick uint64

	CraftPosition    math.Vec3
	CraftOrientation math.Quat
	Mode             flight.SpeedMode
	Speed            float64
	FirstPerson      bool
	WingPose         wings.Pose
	WingPhase        wings.Phase

	CameraPosition    math.Vec3
	CameraOrientation math.Quat
	CameraView        math.Mat4
	FOV               float64

	Warning   string
	Collision collision.Result
	Exit      bool
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithVisualRig attaches the craft's visual rig.
func WithVisualRig(v VisualRig) Option {
	return func(s *Simulation) { s.visual = v }
}

// WithNotifier attaches a HUD warning sink.
func WithNotifier(n Notifier) Option {
	return func(s *Simulation) { s.notifier = n }
}

// WithLogger replaces the simulation's logger and those of its components.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// Simulation is the per-environment context the tick pipeline runs on.
// Ticks are serialized: exactly one runs at a time.
type Simulation struct {
	mu sync.Mutex

	env        config.Environment
	terrain    terrain.Source
	controller *flight.Controller
	detector   *collision.Detector
	tracker    input.Tracker

	craft *flight.Craft
	rig   *camera.Rig

	visual   VisualRig
	notifier Notifier

	warning    string
	warningTTL int

	tick uint64
	last Frame
	log  *zap.Logger
	once logger.Once
}

// New creates a simulation for env over the given terrain source (which may be nil).
// The environment is deep-copied so later edits by the caller have no effect.
func New(env config.Environment, src terrain.Source, opts ...Option) (*Simulation, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("environment %q: %w", env.Name, err)
	}
	env = deep.MustCopy(env)

	s := &Simulation{
		env:     env,
		terrain: src,
		log:     logger.Named("sim"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("env", env.Name))
	s.controller = flight.NewController(env)
	s.controller.SetLogger(s.log.Named("flight"))
	s.detector = collision.NewDetector(env)
	s.detector.SetLogger(s.log.Named("collision"))
	return s, nil
}

// Environment returns the simulation's copy of its environment.
func (s *Simulation) Environment() config.Environment {
	return s.env
}

// Launch creates the craft and camera at the launch point.
func (s *Simulation) Launch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.craft = flight.NewCraft(s.env)
	if s.visual != nil {
		s.craft.FirstPerson = s.visual.IsFirstPerson()
		s.visual.SetWingPose(s.craft.Wings.Pose)
	}
	s.rig = camera.NewRig(s.env.Camera, s.env.Speeds)
	s.tracker.Reset()
	s.warning, s.warningTTL = "", 0
	s.tick = 0
	s.last = Frame{}
	s.once.Forget("launch")
	s.log.Info("launched", zap.Stringer("position", vec(s.craft.Position)))
}

// Teardown drops the craft and camera. Later ticks are no-ops until the next Launch.
func (s *Simulation) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.craft = nil
	s.rig = nil
	s.log.Info("torn down")
}

// Launched reports whether the craft exists.
func (s *Simulation) Launched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.craft != nil
}

// Craft returns a copy of the craft state, or false before Launch.
func (s *Simulation) Craft() (flight.Craft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.craft == nil {
		return flight.Craft{}, false
	}
	return *s.craft, true
}

// Camera returns the camera rig, or nil before Launch.
// It must not be used concurrently with Tick.
func (s *Simulation) Camera() *camera.Rig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rig
}

// SetTerrain swaps the terrain source used by later ticks.
func (s *Simulation) SetTerrain(src terrain.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terrain = src
}

// Tick runs one frame of the pipeline: input, flight, collision, wings, camera.
// It returns ErrTickInProgress if another tick is running (including a
// re-entrant call from a hook) and ErrTickFailed if the tick panicked.
func (s *Simulation) Tick(raw input.Raw) (Frame, error) {
	if !s.mu.TryLock() {
		return Frame{}, ErrTickInProgress
	}
	defer s.mu.Unlock()

	if s.craft == nil || s.rig == nil {
		s.once.Warn(s.log, "launch", "tick skipped: simulation not launched")
		return Frame{}, nil
	}
	return s.safeTick(raw)
}

func (s *Simulation) safeTick(raw input.Raw) (frame Frame, err error) {
	craft := *s.craft
	rig := *s.rig
	tracker := s.tracker
	warning, ttl := s.warning, s.warningTTL

	defer func() {
		if r := recover(); r != nil {
			*s.craft = craft
			*s.rig = rig
			s.tracker = tracker
			s.warning, s.warningTTL = warning, ttl
			s.log.Error("tick failed", zap.Uint64("tick", s.tick), zap.Any("panic", r), zap.StackSkip("stack", 2))
			frame, err = s.last, ErrTickFailed
		}
	}()

	frame = s.step(raw)
	s.last = frame
	return frame, nil
}

func (s *Simulation) step(raw input.Raw) Frame {
	in := s.tracker.Next(raw)
	craft := s.craft

	if in.ViewRequested {
		craft.FirstPerson = !craft.FirstPerson
		if s.visual != nil {
			s.visual.ToggleView()
			craft.FirstPerson = s.visual.IsFirstPerson()
		}
	}
	if in.ResetRequested {
		craft.Respawn(craft.LaunchPosition)
		craft.Speed = 0
		s.log.Info("reset to launch point")
	}

	prev := craft.Snapshot()
	s.controller.Update(craft, in, s.terrain)

	res := s.detector.Resolve(craft, prev, s.terrain)
	if res.Collided() {
		s.rig.NotifyCollision()
		s.raiseWarning(CollisionWarning)
	}

	craft.Wings = craft.Wings.Step(wings.TargetFor(craft.Mode.Fast()), s.env.Wings)
	if s.visual != nil {
		s.visual.SetWingPose(craft.Wings.Pose)
	}

	s.rig.Update(craft, in)

	s.tick++
	frame := Frame{
		Tick:              s.tick,
		CraftPosition:     craft.Position,
		CraftOrientation:  craft.Orientation,
		Mode:              craft.Mode,
		Speed:             craft.Speed,
		FirstPerson:       craft.FirstPerson,
		WingPose:          craft.Wings.Pose,
		WingPhase:         craft.Wings.Phase,
		CameraPosition:    s.rig.Position(),
		CameraOrientation: s.rig.Orientation(),
		CameraView:        s.rig.View(),
		FOV:               s.rig.FOV(),
		Collision:         res,
		Exit:              in.ExitRequested,
	}
	frame.Warning = s.consumeWarning()
	return frame
}

func (s *Simulation) raiseWarning(msg string) {
	s.warning = msg
	s.warningTTL = s.env.WarningFrames
	if s.notifier != nil {
		s.notifier.ShowWarning(msg, s.env.WarningFrames)
	}
}

// consumeWarning returns the active warning and ages it by one frame.
func (s *Simulation) consumeWarning() string {
	if s.warningTTL <= 0 {
		return ""
	}
	msg := s.warning
	s.warningTTL--
	if s.warningTTL == 0 {
		s.warning = ""
	}
	return msg
}

// vec adapts a Vec3 to fmt.Stringer for structured logs.
type vec math.Vec3

func (v vec) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", v.X, v.Y, v.Z)
}
