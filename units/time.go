package units

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dudk/cadence"
)

type unit int

const (
	unitSeconds unit = iota
	unitQuarters
	unitMeasures
	unitTicks
	unitHertz
)

type quantity struct {
	value float64
	// quarters are added to measures, for bars:beats:sixteenths.
	quarters float64
	unit     unit
	relative bool
}

// Time is a time value: seconds, ticks or an expression resolved against
// a Converter.
type Time struct {
	expr     string
	q        quantity
	parsed   bool
	infinite bool
}

// Now is the current time of a converter.
var Now = Time{q: quantity{unit: unitSeconds, relative: true}, parsed: true}

// Forever is an infinite duration.
var Forever = Time{q: quantity{value: math.Inf(1), unit: unitTicks}, parsed: true, infinite: true}

// Seconds returns a time value in seconds.
func Seconds(s float64) Time {
	return Time{q: quantity{value: s, unit: unitSeconds}, parsed: true}
}

// Ticks returns a time value in ticks.
func Ticks(t float64) Time {
	return Time{q: quantity{value: t, unit: unitTicks}, parsed: true}
}

// Expr returns a time value from an expression. Supported forms:
//
//	"0.5"      seconds
//	"0.5s"     seconds
//	"4n"       quarter note, "8n." dotted eighth, "8t" eighth triplet
//	"2m"       two measures
//	"1:2:3"    bars:beats:sixteenths
//	"96i"      ticks
//	"2hz"      period of a frequency
//	"100samples"
//
// A leading "+" makes the value relative to the converter's Now.
// Expressions are parsed when converted; malformed ones fail with
// cadence.ErrInvalidArgument.
func Expr(s string) Time {
	return Time{expr: s}
}

// Parse parses an expression eagerly.
func Parse(s string) (Time, error) {
	t := Expr(s)
	q, err := t.quantity(0)
	if err != nil {
		return Time{}, err
	}
	t.q, t.parsed = q, true
	return t, nil
}

var (
	notationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)n(\.?)$`)
	tripletRe  = regexp.MustCompile(`^(\d+(?:\.\d+)?)t$`)
	measureRe  = regexp.MustCompile(`^(\d+(?:\.\d+)?)m$`)
	ticksRe    = regexp.MustCompile(`^(\d+(?:\.\d+)?)i$`)
	hertzRe    = regexp.MustCompile(`^(\d+(?:\.\d+)?)hz$`)
	secondsRe  = regexp.MustCompile(`^(\d+(?:\.\d+)?|\.\d+)s?$`)
	samplesRe  = regexp.MustCompile(`^(\d+)samples$`)
	bbsRe      = regexp.MustCompile(`^(\d+(?:\.\d+)?):(\d+(?:\.\d+)?)(?::(\d+(?:\.\d+)?))?$`)
)

func (t Time) quantity(sampleRate float64) (quantity, error) {
	if t.parsed {
		if math.IsNaN(t.q.value) || (math.IsInf(t.q.value, 0) && !t.infinite) {
			return quantity{}, cadence.InvalidArgument("units.Time", "value", t.q.value)
		}
		return t.q, nil
	}
	s := strings.ToLower(strings.TrimSpace(t.expr))
	var q quantity
	if strings.HasPrefix(s, "+") {
		q.relative = true
		s = strings.TrimSpace(s[1:])
	}
	num := func(m string) float64 {
		v, _ := strconv.ParseFloat(m, 64)
		return v
	}
	switch {
	case notationRe.MatchString(s):
		m := notationRe.FindStringSubmatch(s)
		n := num(m[1])
		if n == 0 {
			return quantity{}, cadence.InvalidArgument("units.Time", "expression", t.expr)
		}
		q.value, q.unit = 4/n, unitQuarters
		if m[2] == "." {
			q.value *= 1.5
		}
	case tripletRe.MatchString(s):
		n := num(tripletRe.FindStringSubmatch(s)[1])
		if n == 0 {
			return quantity{}, cadence.InvalidArgument("units.Time", "expression", t.expr)
		}
		q.value, q.unit = 4/n*2/3, unitQuarters
	case measureRe.MatchString(s):
		q.value, q.unit = num(measureRe.FindStringSubmatch(s)[1]), unitMeasures
	case ticksRe.MatchString(s):
		q.value, q.unit = num(ticksRe.FindStringSubmatch(s)[1]), unitTicks
	case hertzRe.MatchString(s):
		f := num(hertzRe.FindStringSubmatch(s)[1])
		if f == 0 {
			return quantity{}, cadence.InvalidArgument("units.Time", "expression", t.expr)
		}
		q.value, q.unit = f, unitHertz
	case samplesRe.MatchString(s):
		if sampleRate <= 0 {
			return quantity{}, cadence.InvalidArgument("units.Time", "sample rate", sampleRate)
		}
		q.value, q.unit = num(samplesRe.FindStringSubmatch(s)[1])/sampleRate, unitSeconds
	case bbsRe.MatchString(s):
		m := bbsRe.FindStringSubmatch(s)
		bars, beats := num(m[1]), num(m[2])
		var sixteenths float64
		if m[3] != "" {
			sixteenths = num(m[3])
		}
		q.value, q.quarters, q.unit = bars, beats+sixteenths/4, unitMeasures
	case secondsRe.MatchString(s):
		q.value, q.unit = num(secondsRe.FindStringSubmatch(s)[1]), unitSeconds
	default:
		return quantity{}, cadence.InvalidArgument("units.Time", "expression", t.expr)
	}
	return q, nil
}
