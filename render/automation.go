package render

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence/log"
	"github.com/dudk/cadence/param"
)

// Automation is a cadence.Sink which evaluates received commands the way
// a native parameter does. It allows to render what a device would play.
type Automation struct {
	p   *param.Param
	log *logrus.Entry
}

// NewAutomation creates an automation with initial value.
func NewAutomation(initial float64, l logrus.FieldLogger) (*Automation, error) {
	p, err := param.New(
		param.WithoutConversion(),
		param.WithRange(math.Inf(-1), math.Inf(1)),
		param.WithValue(initial),
		param.WithLogger(l),
	)
	if err != nil {
		return nil, err
	}
	return &Automation{
		p:   p,
		log: log.Component(l, "automation", p.UID()),
	}, nil
}

func (a *Automation) check(err error) {
	if err != nil {
		a.log.WithError(err).Warn("command rejected")
	}
}

// SetValueAtTime implements cadence.Sink.
func (a *Automation) SetValueAtTime(value, time float64) {
	a.check(a.p.SetValueAtTime(value, time))
}

// LinearRampToValueAtTime implements cadence.Sink.
func (a *Automation) LinearRampToValueAtTime(value, time float64) {
	a.check(a.p.LinearRampToValueAtTime(value, time))
}

// ExponentialRampToValueAtTime implements cadence.Sink.
func (a *Automation) ExponentialRampToValueAtTime(value, time float64) {
	a.check(a.p.ExponentialRampToValueAtTime(value, time))
}

// SetTargetAtTime implements cadence.Sink.
func (a *Automation) SetTargetAtTime(value, time, timeConstant float64) {
	a.check(a.p.SetTargetAtTime(value, time, timeConstant))
}

// CancelScheduledValues implements cadence.Sink.
func (a *Automation) CancelScheduledValues(time float64) {
	a.check(a.p.CancelScheduledValues(time))
}

// CancelAndHoldAtTime implements cadence.Sink.
func (a *Automation) CancelAndHoldAtTime(time float64) {
	a.check(a.p.CancelAndHoldAtTime(time))
}

// GetValueAtTime implements Signal.
func (a *Automation) GetValueAtTime(t float64) float64 {
	return a.p.GetValueAtTime(t)
}

// Len returns number of scheduled commands.
func (a *Automation) Len() int {
	return a.p.Len()
}
