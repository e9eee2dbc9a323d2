package param

import (
	"math"

	"github.com/dudk/cadence"
)

// TickParam is a frequency parameter which integrates its curve into
// ticks. Values are in hertz or, with BPM units, beats per minute; the
// internal domain is ticks per second: value multiplied by multiplier
// (and divided by 60 for BPM).
//
// Exponential ramps and exponential approaches are approximated by linear
// segments so the integral has a closed form.
type TickParam struct {
	*Param
	multiplier float64
}

// NewTickParam creates a tick parameter. Default units are Frequency and
// default value is 1.
func NewTickParam(multiplier float64, options ...Option) (*TickParam, error) {
	if !finite(multiplier) || multiplier <= 0 {
		return nil, cadence.InvalidArgument("NewTickParam", "multiplier", multiplier)
	}
	defaults := []Option{WithUnits(Frequency), WithValue(1), WithMemory(math.MaxInt32)}
	tp := &TickParam{
		Param:      newParam(append(defaults, options...)...),
		multiplier: multiplier,
	}
	tp.fromType = tp.ticksFrom
	tp.toType = tp.ticksTo
	tp.exponentialRamp = tp.addExponentialRamp
	tp.setTarget = tp.addTarget
	tp.added = tp.recompute
	if err := tp.init(); err != nil {
		return nil, err
	}
	tp.addSetValue(tp.initial, 0)
	return tp, nil
}

func (tp *TickParam) ticksFrom(v float64) float64 {
	if tp.units == BPM {
		return v * tp.multiplier / 60
	}
	return v * tp.multiplier
}

func (tp *TickParam) ticksTo(v float64) float64 {
	if tp.units == BPM {
		return v / tp.multiplier * 60
	}
	return v / tp.multiplier
}

// Multiplier returns the multiplier of the value.
func (tp *TickParam) Multiplier() float64 {
	return tp.multiplier
}

// SetMultiplier changes the multiplier. Automation is replaced with the
// current value held from zero.
func (tp *TickParam) SetMultiplier(m float64) error {
	if !finite(m) || m <= 0 {
		return cadence.InvalidArgument("SetMultiplier", "multiplier", m)
	}
	v := tp.Value()
	tp.multiplier = m
	tp.cancel(0)
	tp.addSetValue(tp.fromType(v), 0)
	return nil
}

// addExponentialRamp approximates the ramp with ten linear segments per
// second.
func (tp *TickParam) addExponentialRamp(v, t float64) {
	v = math.Max(MinOutput, v)
	t0, v0 := tp.origin(t)
	segments := math.Round(math.Max((t-t0)*10, 1))
	duration := (t - t0) / segments
	for i := 0.0; i <= segments; i++ {
		at := t0 + duration*i
		tp.addLinearRamp(exponentialInterpolate(t0, v0, t, v, at), at)
	}
}

// addTarget approximates the approach with linear segments one time
// constant long.
func (tp *TickParam) addTarget(v, t, constant float64) {
	tp.setRampPoint(t)
	t0, v0 := tp.origin(t)
	segments := math.Round(math.Max(1/constant, 1))
	for i := 0.0; i <= segments; i++ {
		at := t + constant*i
		tp.addLinearRamp(exponentialApproach(t0, v0, v, constant, at), at)
	}
}

// origin returns time and value of the command in effect at t.
func (tp *TickParam) origin(t float64) (float64, float64) {
	if a, ok := tp.events.Get(t); ok {
		return a.At, a.Value
	}
	return 0, tp.initial
}

// recompute updates elapsed ticks of every command starting at a.
func (tp *TickParam) recompute(a *Automation) {
	tp.events.ForEachFrom(a.At, func(e *Automation) {
		prev, _ := tp.events.Previous(e)
		e.ticks = math.Max(tp.ticksUntil(prev, e.At), 0)
	})
}

// ticksUntil integrates the curve from command a to time t. Nil a means
// the origin.
func (tp *TickParam) ticksUntil(a *Automation, t float64) float64 {
	var t0, ticks0 float64
	if a != nil {
		t0, ticks0 = a.At, a.ticks
	}
	v0 := tp.valueAt(t0)
	v1 := tp.valueAt(t)
	if on, ok := tp.events.Get(t); ok && on.At == t && on.Type == SetValue {
		v1 = tp.valueAt(t - tp.sampleTime())
	}
	return 0.5*(t-t0)*(v0+v1) + ticks0
}

// GetTicksAtTime returns number of ticks elapsed from zero until t.
func (tp *TickParam) GetTicksAtTime(t float64) float64 {
	a, _ := tp.events.Get(t)
	return math.Max(tp.ticksUntil(a, t), 0)
}

// GetTimeOfTick returns the time when the tick is reached. Returns +Inf if
// the tick is never reached.
func (tp *TickParam) GetTimeOfTick(tick float64) float64 {
	before, ok := tp.events.GetBy(ticksOf, tick)
	after, okAfter := tp.events.GetAfterBy(ticksOf, tick)
	switch {
	case ok && before.ticks == tick:
		return before.At
	case ok && okAfter && after.Type == LinearRamp && before.Value != after.Value:
		v0 := tp.valueAt(before.At)
		v1 := tp.valueAt(after.At)
		delta := (v1 - v0) / (after.At - before.At)
		k := math.Sqrt(v0*v0 - 2*delta*(before.ticks-tick))
		solution := (-v0 + k) / delta
		if solution <= 0 {
			solution = (-v0 - k) / delta
		}
		return solution + before.At
	case ok:
		if before.Value == 0 {
			return math.Inf(1)
		}
		return before.At + (tick-before.ticks)/before.Value
	}
	if tp.initial == 0 {
		return math.Inf(1)
	}
	return tick / tp.initial
}

// GetDurationOfTicks returns duration in seconds of ticks starting at t.
func (tp *TickParam) GetDurationOfTicks(ticks, t float64) float64 {
	current := tp.GetTicksAtTime(t)
	return tp.GetTimeOfTick(current+ticks) - t
}

// TicksToTime is GetDurationOfTicks.
func (tp *TickParam) TicksToTime(ticks, t float64) float64 {
	return tp.GetDurationOfTicks(ticks, t)
}

// TimeToTicks returns number of ticks within duration starting at t.
func (tp *TickParam) TimeToTicks(duration, t float64) float64 {
	return tp.GetTicksAtTime(t+duration) - tp.GetTicksAtTime(t)
}
