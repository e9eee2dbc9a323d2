package param

import (
	"fmt"
	"math"
)

// Type is the kind of an automation command.
type Type int

const (
	// SetValue jumps to the value at the time.
	SetValue Type = iota
	// LinearRamp ramps linearly from the previous command to the value.
	LinearRamp
	// ExponentialRamp ramps exponentially from the previous command to the
	// value.
	ExponentialRamp
	// SetTarget approaches the value exponentially with a time constant.
	SetTarget
)

func (t Type) String() string {
	switch t {
	case SetValue:
		return "setValueAtTime"
	case LinearRamp:
		return "linearRampToValueAtTime"
	case ExponentialRamp:
		return "exponentialRampToValueAtTime"
	case SetTarget:
		return "setTargetAtTime"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (t Type) isRamp() bool {
	return t == LinearRamp || t == ExponentialRamp
}

// Automation is a single automation command. Value is stored in the
// converted (native) domain.
type Automation struct {
	Type     Type
	At       float64
	Value    float64
	Constant float64

	// ticks elapsed until At, maintained by TickParam.
	ticks float64
}

// Time implements timeline.Event.
func (a *Automation) Time() float64 {
	return a.At
}

func (a *Automation) String() string {
	if a.Type == SetTarget {
		return fmt.Sprintf("%v(%v, %v, %v)", a.Type, a.Value, a.At, a.Constant)
	}
	return fmt.Sprintf("%v(%v, %v)", a.Type, a.Value, a.At)
}

func ticksOf(a *Automation) float64 {
	return a.ticks
}

func linearInterpolate(t0, v0, t1, v1, t float64) float64 {
	return v0 + (v1-v0)*((t-t0)/(t1-t0))
}

// exponentialInterpolate holds v0 when the ramp crosses or touches zero,
// as native parameters do.
func exponentialInterpolate(t0, v0, t1, v1, t float64) float64 {
	if v0*v1 <= 0 {
		return v0
	}
	return v0 * math.Pow(v1/v0, (t-t0)/(t1-t0))
}

func exponentialApproach(t0, v0, v1, timeConstant, t float64) float64 {
	return v1 + (v0-v1)*math.Exp(-(t-t0)/timeConstant)
}
