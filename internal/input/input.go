// Package input turns raw held-key snapshots into per-tick flight intents.
package input

// Raw is the held state of every bound control for one tick.
// Device binding (key to boolean) happens outside this package.
type Raw struct {
	PitchUp    bool `msgpack:"pu"`
	PitchDown  bool `msgpack:"pd"`
	YawLeft    bool `msgpack:"yl"`
	YawRight   bool `msgpack:"yr"`
	RollLeft   bool `msgpack:"rl"`
	RollRight  bool `msgpack:"rr"`
	Boost      bool `msgpack:"b"`
	Slow       bool `msgpack:"s"`
	Hyperspace bool `msgpack:"h"`
	ViewToggle bool `msgpack:"v"`
	Reset      bool `msgpack:"r"`
	Exit       bool `msgpack:"x"`
}

// State is the snapshot consumed by one tick: held intents plus
// one-shot actions that were requested this tick.
type State struct {
	Raw

	ViewRequested  bool
	ResetRequested bool
	ExitRequested  bool
}

// Pitch returns -1, 0 or 1. Positive pitches the nose down.
func (s State) Pitch() float64 {
	return axis(s.PitchDown, s.PitchUp)
}

// Yaw returns -1, 0 or 1. Positive turns left.
func (s State) Yaw() float64 {
	return axis(s.YawLeft, s.YawRight)
}

// Roll returns -1, 0 or 1. Positive rolls right (left wing up).
func (s State) Roll() float64 {
	return axis(s.RollRight, s.RollLeft)
}

func axis(pos, neg bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}

// Tracker derives one-shot requests by comparing each raw snapshot with the previous one.
// A request fires on the tick the control goes down and is cleared on the next.
type Tracker struct {
	prev Raw
}

// Next consumes a raw snapshot and returns the tick state.
func (t *Tracker) Next(raw Raw) State {
	s := State{
		Raw:            raw,
		ViewRequested:  raw.ViewToggle && !t.prev.ViewToggle,
		ResetRequested: raw.Reset && !t.prev.Reset,
		ExitRequested:  raw.Exit && !t.prev.Exit,
	}
	t.prev = raw
	return s
}

// Reset forgets the previous snapshot, so a control already held fires again.
func (t *Tracker) Reset() {
	t.prev = Raw{}
}
