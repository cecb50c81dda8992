// Package wings animates the retractable wing surfaces between open and closed poses.
package wings

import (
	gomath "math"

	"github.com/Faultbox/skyrunner/internal/config"
)

// Phase is the wing state machine phase.
type Phase int

const (
	Open Phase = iota
	Closed
	Opening
	Closing
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	}
	return "unknown"
}

// Pose holds the four wing surface angles in radians.
type Pose [4]float64

// State is the wing animation state carried by the craft.
type State struct {
	Phase     Phase
	Remaining int  // Ticks left in the current transition
	From      Pose // Pose captured when the transition was armed
	Pose      Pose
}

// TargetFor returns Closed while boosting or in hyperspace, Open otherwise.
func TargetFor(fast bool) Phase {
	if fast {
		return Closed
	}
	return Open
}

// NewState returns a state resting at phase (Open or Closed).
func NewState(phase Phase, cfg config.Wings) State {
	phase = settled(phase)
	return State{Phase: phase, Pose: goal(phase, cfg)}
}

// Target returns the phase the state is resting at or heading to.
func (s State) Target() Phase {
	return settled(s.Phase)
}

// Transitioning reports whether a transition is in progress.
func (s State) Transitioning() bool {
	return s.Phase == Opening || s.Phase == Closing
}

// Step advances the animation by one tick toward target (Open or Closed).
// A target change re-arms the counter from the current pose, so an
// interrupted transition continues without a jump.
func (s State) Step(target Phase, cfg config.Wings) State {
	target = settled(target)
	frames := cfg.TransitionFrames
	if frames < 1 {
		frames = 1
	}

	if target != s.Target() {
		s.From = s.Pose
		s.Remaining = frames
		if target == Closed {
			s.Phase = Closing
		} else {
			s.Phase = Opening
		}
	}

	end := goal(target, cfg)
	if !s.Transitioning() {
		s.Pose = end
		return s
	}

	s.Remaining = min(max(s.Remaining-1, 0), frames)
	if s.Remaining == 0 {
		s.Phase = target
		s.Pose = end
		return s
	}

	t := Ease(1 - float64(s.Remaining)/float64(frames))
	for i := range s.Pose {
		s.Pose[i] = s.From[i] + (end[i]-s.From[i])*t
	}
	return s
}

// Ease is the cosine ease-in/out curve mapping [0, 1] onto [0, 1].
func Ease(t float64) float64 {
	return (1 - gomath.Cos(gomath.Pi*t)) / 2
}

func settled(p Phase) Phase {
	switch p {
	case Closed, Closing:
		return Closed
	}
	return Open
}

func goal(p Phase, cfg config.Wings) Pose {
	if p == Closed {
		return cfg.Closed
	}
	return cfg.Open
}
