// Package units converts between seconds, musical ticks,
// bars:beats:sixteenths and tempo-relative notation.
package units

import (
	"math"
	"strconv"
	"strings"

	"github.com/dudk/cadence"
)

const (
	// DefaultPPQ is the default resolution of the musical clock.
	DefaultPPQ = 192
	// DefaultBPM is the default tempo.
	DefaultBPM = 120.0
	// DefaultTimeSignature is 4/4 in quarter notes per measure.
	DefaultTimeSignature = 4.0

	// tolerance absorbs floating point error when flooring tick counts,
	// so ticks -> seconds -> ticks is exact for integral ticks.
	tolerance = 1e-9
)

// Meter returns the time signature num/den expressed in quarter notes per
// measure, e.g. 4/4 is 4, 3/4 is 3 and 6/8 is 3.
func Meter(num, den int) float64 {
	return float64(num) / float64(den) * 4
}

// Converter converts time values against a tempo and a resolution.
// The zero value is not usable, see NewConverter.
type Converter struct {
	// PPQ is pulses per quarter note.
	PPQ int
	// TimeSignature is the number of quarter notes per measure.
	TimeSignature float64
	// BPM returns the tempo to convert against.
	BPM func() float64
	// Now returns the current time in seconds for relative expressions.
	Now func() float64
	// SampleRate is used for expressions in samples.
	SampleRate float64
}

// NewConverter returns a converter with a constant tempo.
func NewConverter(ppq int, bpm float64) Converter {
	return Converter{
		PPQ:           ppq,
		TimeSignature: DefaultTimeSignature,
		BPM:           func() float64 { return bpm },
		Now:           func() float64 { return 0 },
		SampleRate:    44100,
	}
}

func (c Converter) bpm() float64 {
	if c.BPM == nil {
		return DefaultBPM
	}
	return c.BPM()
}

func (c Converter) timeSignature() float64 {
	if c.TimeSignature <= 0 {
		return DefaultTimeSignature
	}
	return c.TimeSignature
}

// quarterTime returns duration of a quarter note in seconds.
func (c Converter) quarterTime() float64 {
	return 60 / c.bpm()
}

// SecondsToTicks converts seconds to whole ticks:
// floor(seconds / (60/bpm) * PPQ).
func (c Converter) SecondsToTicks(seconds float64) float64 {
	return floorTicks(seconds / c.quarterTime() * float64(c.PPQ))
}

// TicksToSeconds converts ticks to seconds: ticks/PPQ * 60/bpm.
func (c Converter) TicksToSeconds(ticks float64) float64 {
	return ticks / float64(c.PPQ) * c.quarterTime()
}

// MeasureTicks returns the number of ticks in a measure.
func (c Converter) MeasureTicks() float64 {
	return float64(c.PPQ) * c.timeSignature()
}

// ToSeconds converts a time value to seconds.
func (c Converter) ToSeconds(t Time) (float64, error) {
	q, err := t.quantity(c.SampleRate)
	if err != nil {
		return 0, err
	}
	var s float64
	switch q.unit {
	case unitSeconds:
		s = q.value
	case unitQuarters:
		s = q.value * c.quarterTime()
	case unitMeasures:
		s = (q.value*c.timeSignature() + q.quarters) * c.quarterTime()
	case unitTicks:
		s = c.TicksToSeconds(q.value)
	case unitHertz:
		s = 1 / q.value
	}
	if q.relative && c.Now != nil {
		s += c.Now()
	}
	return s, nil
}

// ToTicks converts a time value to whole ticks.
func (c Converter) ToTicks(t Time) (float64, error) {
	q, err := t.quantity(c.SampleRate)
	if err != nil {
		return 0, err
	}
	var ticks float64
	switch q.unit {
	case unitQuarters:
		ticks = floorTicks(q.value * float64(c.PPQ))
	case unitMeasures:
		ticks = floorTicks((q.value*c.timeSignature() + q.quarters) * float64(c.PPQ))
	case unitTicks:
		ticks = floorTicks(q.value)
	default:
		s, _ := c.ToSeconds(Time{q: q, parsed: true})
		return c.SecondsToTicks(s), nil
	}
	if q.relative && c.Now != nil {
		ticks += c.SecondsToTicks(c.Now())
	}
	return ticks, nil
}

// ToFrequency converts a time value to its frequency in hertz.
func (c Converter) ToFrequency(t Time) (float64, error) {
	s, err := c.ToSeconds(t)
	if err != nil {
		return 0, err
	}
	return 1 / s, nil
}

// ToBarsBeatsSixteenths converts a time value to "bars:beats:sixteenths".
func (c Converter) ToBarsBeatsSixteenths(t Time) (string, error) {
	ticks, err := c.ToTicks(t)
	if err != nil {
		return "", err
	}
	return c.TicksToBarsBeatsSixteenths(ticks), nil
}

// TicksToBarsBeatsSixteenths formats ticks as "bars:beats:sixteenths".
// A bar is PPQ*TimeSignature ticks, a beat PPQ ticks and a sixteenth PPQ/4
// ticks. Sixteenths keep up to three decimals.
func (c Converter) TicksToBarsBeatsSixteenths(ticks float64) string {
	quarters := round(ticks/float64(c.PPQ), 4)
	ts := c.timeSignature()
	bars := math.Floor(quarters / ts)
	sixteenths := (quarters - math.Floor(quarters)) * 4
	beats := math.Mod(math.Floor(quarters), ts)
	s := strconv.FormatFloat(sixteenths, 'f', -1, 64)
	if len(s) > 3 {
		s = strconv.FormatFloat(round(sixteenths, 3), 'f', -1, 64)
	}
	return strconv.FormatFloat(bars, 'f', -1, 64) + ":" +
		strconv.FormatFloat(beats, 'f', -1, 64) + ":" + s
}

// FromBarsBeatsSixteenths parses "bars:beats:sixteenths" into ticks. The
// sixteenths part is optional.
func (c Converter) FromBarsBeatsSixteenths(bbs string) (float64, error) {
	if !bbsRe.MatchString(strings.TrimSpace(bbs)) {
		return 0, cadence.InvalidArgument("units.FromBarsBeatsSixteenths", "expression", bbs)
	}
	return c.ToTicks(Expr(bbs))
}

var notations = []string{
	"1n", "2n", "2n.", "2t", "4n", "4n.", "4t", "8n", "8n.", "8t",
	"16n", "16n.", "16t", "32n", "32n.", "32t", "64n", "64n.", "64t",
}

// ToNotation returns the notation of ticks: whole measures as "Nm", an
// exact note value like "8n." or "4t", otherwise raw ticks as "Ni".
func (c Converter) ToNotation(ticks float64) string {
	if m := c.MeasureTicks(); ticks > 0 && math.Mod(ticks, m) == 0 {
		return strconv.FormatFloat(ticks/m, 'f', -1, 64) + "m"
	}
	for _, n := range notations {
		v, _ := c.ToTicks(Expr(n))
		if v == ticks {
			return n
		}
	}
	return strconv.FormatFloat(ticks, 'f', -1, 64) + "i"
}

func floorTicks(v float64) float64 {
	return math.Floor(v + tolerance)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// String returns a normalized expression.
func (t Time) String() string {
	if t.expr != "" {
		return strings.TrimSpace(t.expr)
	}
	if t.infinite {
		return "Infinity"
	}
	switch t.q.unit {
	case unitTicks:
		return strconv.FormatFloat(t.q.value, 'f', -1, 64) + "i"
	default:
		return strconv.FormatFloat(t.q.value, 'f', -1, 64)
	}
}
