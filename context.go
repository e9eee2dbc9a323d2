package cadence

import (
	"github.com/rs/xid"
)

// Context is a native audio clock. It provides the authoritative current
// time and calls registered tick listeners at block rate. All time
// arithmetic of the engine is relative to CurrentTime, never to wall-clock.
type Context interface {
	// CurrentTime returns the time of the audio clock in seconds.
	CurrentTime() float64
	// LookAhead returns how far ahead of CurrentTime events are dispatched.
	LookAhead() float64
	// SampleRate of the audio clock.
	SampleRate() float64
	// OnTick registers fn to be called on every processing block. Calls
	// are ordered and never overlap. Returned function removes fn.
	OnTick(fn func()) (cancel func())
}

// Sink is a native automatable parameter. Param forwards every automation
// command it accepts to its sink.
type Sink interface {
	SetValueAtTime(value, time float64)
	LinearRampToValueAtTime(value, time float64)
	ExponentialRampToValueAtTime(value, time float64)
	SetTargetAtTime(value, time, timeConstant float64)
	CancelScheduledValues(time float64)
	CancelAndHoldAtTime(time float64)
}

// NewUID returns new unique id value.
func NewUID() string {
	return xid.New().String()
}

// Now returns the time events are computed for: current time plus look ahead.
func Now(ctx Context) float64 {
	return ctx.CurrentTime() + ctx.LookAhead()
}

// SampleTime returns duration of a single sample of the context.
func SampleTime(ctx Context) float64 {
	return 1 / ctx.SampleRate()
}
