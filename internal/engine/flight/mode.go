package flight

import (
	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/input"
)

// SpeedMode is the movement state selecting speed, turn rate, probe radius and camera targets.
type SpeedMode int

const (
	Base SpeedMode = iota
	Boost
	Slow
	Hyperspace
)

func (m SpeedMode) String() string {
	switch m {
	case Base:
		return "base"
	case Boost:
		return "boost"
	case Slow:
		return "slow"
	case Hyperspace:
		return "hyperspace"
	}
	return "unknown"
}

// Fast reports whether the mode is one of the high-speed modes.
func (m SpeedMode) Fast() bool {
	return m == Boost || m == Hyperspace
}

// SelectMode picks exactly one mode by priority Hyperspace > Boost > Slow > Base.
// Hyperspace is ignored unless the environment allows it.
func SelectMode(in input.State, allowHyperspace bool) SpeedMode {
	switch {
	case in.Hyperspace && allowHyperspace:
		return Hyperspace
	case in.Boost:
		return Boost
	case in.Slow:
		return Slow
	}
	return Base
}

// Params returns the table entry for mode.
func Params(t config.SpeedTable, m SpeedMode) config.ModeParams {
	switch m {
	case Boost:
		return t.Boost
	case Slow:
		return t.Slow
	case Hyperspace:
		return t.Hyperspace
	}
	return t.Base
}

// Offset returns the camera offset for mode from table.
func Offset(t config.OffsetTable, m SpeedMode) [3]float64 {
	switch m {
	case Boost:
		return t.Boost
	case Slow:
		return t.Slow
	case Hyperspace:
		return t.Hyperspace
	}
	return t.Base
}
