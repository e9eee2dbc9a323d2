package param

import (
	"math"
)

// Unit describes how parameter values are interpreted.
type Unit int

const (
	// Number is a plain number.
	Number Unit = iota
	// Frequency in hertz.
	Frequency
	// BPM is tempo in beats per minute.
	BPM
	// Decibels are converted to gain for the native parameter.
	Decibels
	// Gain is a linear amplitude.
	Gain
	// Time in seconds.
	Time
	// NormalRange is [0, 1].
	NormalRange
	// AudioRange is [-1, 1].
	AudioRange
	// Positive is [0, +Inf).
	Positive
)

func (u Unit) String() string {
	switch u {
	case Number:
		return "number"
	case Frequency:
		return "frequency"
	case BPM:
		return "bpm"
	case Decibels:
		return "decibels"
	case Gain:
		return "gain"
	case Time:
		return "time"
	case NormalRange:
		return "normalRange"
	case AudioRange:
		return "audioRange"
	case Positive:
		return "positive"
	}
	return "unknown"
}

// exponential reports if ramps of this unit are perceived linearly when
// applied exponentially.
func (u Unit) exponential() bool {
	return u == Frequency || u == BPM || u == Decibels
}

// bounds returns default range of the unit.
func (u Unit) bounds() (float64, float64) {
	switch u {
	case NormalRange:
		return 0, 1
	case AudioRange:
		return -1, 1
	case Positive, Frequency, BPM, Time:
		return 0, math.Inf(1)
	}
	return math.Inf(-1), math.Inf(1)
}

// DBToGain converts decibels to linear gain.
func DBToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// GainToDB converts linear gain to decibels.
func GainToDB(gain float64) float64 {
	return 20 * (math.Log(gain) / math.Ln10)
}
