package main

import (
	"errors"
	"io"

	"github.com/Faultbox/skyrunner/internal/input"
	"github.com/Faultbox/skyrunner/internal/replay"
)

// source supplies the held controls for each tick.
type source interface {
	Next(tick uint64) (input.Raw, error)
}

// autopilot is a scripted demo flight: cruise, climb, a boosted banked turn,
// a view change and a slow descent, repeated.
type autopilot struct{}

type segment struct {
	ticks uint64
	raw   input.Raw
}

var demoFlight = []segment{
	{120, input.Raw{}},
	{60, input.Raw{PitchUp: true}},
	{180, input.Raw{Boost: true}},
	{90, input.Raw{Boost: true, YawLeft: true, RollLeft: true}},
	{1, input.Raw{ViewToggle: true}},
	{120, input.Raw{}},
	{1, input.Raw{ViewToggle: true}},
	{90, input.Raw{Slow: true, PitchDown: true}},
	{60, input.Raw{YawRight: true, RollRight: true}},
}

func (autopilot) Next(tick uint64) (input.Raw, error) {
	var total uint64
	for _, s := range demoFlight {
		total += s.ticks
	}
	t := tick % total
	for _, s := range demoFlight {
		if t < s.ticks {
			return s.raw, nil
		}
		t -= s.ticks
	}
	return input.Raw{}, nil
}

// playback feeds ticks from a recording and requests exit when it runs out.
type playback struct {
	r *replay.Reader
}

func (p playback) Next(uint64) (input.Raw, error) {
	raw, err := p.r.Next()
	if errors.Is(err, io.EOF) {
		return input.Raw{Exit: true}, nil
	}
	return raw, err
}
