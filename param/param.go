// Package param evaluates automation curves of automatable parameters.
//
// A Param keeps a timeline of automation commands and computes the value
// at any time with the semantics of native audio parameters: step, linear
// ramp, exponential ramp, exponential approach and value curves. Every
// accepted command is forwarded to an optional native Sink.
package param

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/log"
	"github.com/dudk/cadence/timeline"
)

const (
	// MinOutput is the floor of exponential ramps, which are undefined
	// at zero.
	MinOutput = 1e-7

	defaultMemory     = 1000
	defaultSampleRate = 44100
)

// Input is a signal summed into the parameter value. It returns the value
// in the native domain at time t.
type Input func(t float64) float64

// Param is an automatable parameter.
type Param struct {
	uid      string
	log      *logrus.Entry
	units    Unit
	convert  bool
	min, max float64
	initial  float64
	memory   int

	events *timeline.Timeline[*Automation]
	sink   cadence.Sink
	ctx    cadence.Context

	inputs    []input
	nextInput int

	fromType func(float64) float64
	toType   func(float64) float64

	// strategies which TickParam replaces.
	exponentialRamp func(value, t float64)
	setTarget       func(value, t, constant float64)
	added           func(*Automation)
}

type input struct {
	id int
	fn Input
}

// Option configures a Param.
type Option func(*Param)

// WithUnits sets units of the parameter. Default range is derived from
// units unless WithRange is provided.
func WithUnits(u Unit) Option {
	return func(p *Param) {
		p.units = u
		p.min, p.max = u.bounds()
	}
}

// WithRange sets the allowed range of values in units.
func WithRange(min, max float64) Option {
	return func(p *Param) {
		p.min, p.max = min, max
	}
}

// WithValue sets the initial value in units.
func WithValue(v float64) Option {
	return func(p *Param) {
		p.initial = v
	}
}

// WithoutConversion disables units conversion, values are passed to the
// native parameter as is.
func WithoutConversion() Option {
	return func(p *Param) {
		p.convert = false
	}
}

// WithSink sets the native parameter which receives automation commands.
func WithSink(s cadence.Sink) Option {
	return func(p *Param) {
		p.sink = s
	}
}

// WithContext sets the context used for the current time and sample time.
func WithContext(ctx cadence.Context) Option {
	return func(p *Param) {
		p.ctx = ctx
	}
}

// WithLogger sets logger. If this option is not provided, silent logger is
// used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Param) {
		p.log = log.Component(l, "param", p.uid)
	}
}

// WithMemory bounds the number of stored automation commands.
func WithMemory(n int) Option {
	return func(p *Param) {
		p.memory = n
	}
}

// New creates a new parameter. Initial value must be within range.
func New(options ...Option) (*Param, error) {
	p := newParam(options...)
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

func newParam(options ...Option) *Param {
	p := &Param{
		uid:     cadence.NewUID(),
		convert: true,
		memory:  defaultMemory,
	}
	p.min, p.max = Number.bounds()
	p.log = log.Component(nil, "param", p.uid)
	for _, option := range options {
		option(p)
	}
	p.fromType = p.convertFrom
	p.toType = p.convertTo
	p.exponentialRamp = p.addExponentialRamp
	p.setTarget = p.addTarget
	p.added = func(*Automation) {}
	return p
}

func (p *Param) init() error {
	if err := p.checkValue("New", p.initial); err != nil {
		return err
	}
	p.events = timeline.New[*Automation](timeline.WithMemory(p.memory))
	p.initial = p.fromType(p.initial)
	return nil
}

// UID returns unique id of the parameter.
func (p *Param) UID() string {
	return p.uid
}

// Units returns units of the parameter.
func (p *Param) Units() Unit {
	return p.units
}

// MinValue returns the minimum value in units.
func (p *Param) MinValue() float64 {
	return p.min
}

// MaxValue returns the maximum value in units.
func (p *Param) MaxValue() float64 {
	return p.max
}

// Len returns number of scheduled automation commands.
func (p *Param) Len() int {
	return p.events.Len()
}

// ForEach calls fn for every scheduled automation command.
func (p *Param) ForEach(fn func(Automation)) {
	p.events.ForEach(func(a *Automation) {
		fn(*a)
	})
}

func (p *Param) convertFrom(v float64) float64 {
	if p.convert && p.units == Decibels {
		return DBToGain(v)
	}
	return v
}

func (p *Param) convertTo(v float64) float64 {
	if p.convert && p.units == Decibels {
		return GainToDB(v)
	}
	return v
}

func (p *Param) now() float64 {
	if p.ctx == nil {
		return 0
	}
	return cadence.Now(p.ctx)
}

func (p *Param) sampleTime() float64 {
	if p.ctx == nil || p.ctx.SampleRate() <= 0 {
		return 1.0 / defaultSampleRate
	}
	return cadence.SampleTime(p.ctx)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p *Param) checkTime(op string, t float64) error {
	if !finite(t) || t < 0 {
		return cadence.InvalidArgument(op, "time", t)
	}
	return nil
}

func (p *Param) checkValue(op string, v float64) error {
	if !finite(v) {
		return cadence.InvalidArgument(op, "value", v)
	}
	if v < p.min || v > p.max {
		return cadence.OutOfRange(op, "value", v)
	}
	return nil
}

func (p *Param) checkDuration(op string, d float64) error {
	if !finite(d) || d <= 0 {
		return cadence.InvalidArgument(op, "duration", d)
	}
	return nil
}

func (p *Param) check(op string, v, t float64) error {
	if err := p.checkValue(op, v); err != nil {
		return err
	}
	return p.checkTime(op, t)
}

func (p *Param) add(a *Automation) {
	p.log.WithFields(logrus.Fields{
		"type":  a.Type,
		"time":  a.At,
		"value": a.Value,
	}).Debug("automation")
	// memory is bounded, error is only possible for NaN time.
	_ = p.events.Add(a)
	p.added(a)
}

// SetValueAtTime schedules a jump to the value at time t.
func (p *Param) SetValueAtTime(v, t float64) error {
	if err := p.check("SetValueAtTime", v, t); err != nil {
		return err
	}
	p.addSetValue(p.fromType(v), t)
	return nil
}

func (p *Param) addSetValue(v, t float64) {
	p.add(&Automation{Type: SetValue, At: t, Value: v})
	if p.sink != nil {
		p.sink.SetValueAtTime(v, t)
	}
}

// ZeroAtTime sets the automation value to zero at time t, bypassing the
// range. Connected inputs alone define the value from t on.
func (p *Param) ZeroAtTime(t float64) error {
	if err := p.checkTime("ZeroAtTime", t); err != nil {
		return err
	}
	p.addSetValue(0, t)
	return nil
}

// LinearRampToValueAtTime schedules a linear ramp from the previous
// command to the value, ending at time t.
func (p *Param) LinearRampToValueAtTime(v, t float64) error {
	if err := p.check("LinearRampToValueAtTime", v, t); err != nil {
		return err
	}
	p.addLinearRamp(p.fromType(v), t)
	return nil
}

func (p *Param) addLinearRamp(v, t float64) {
	p.add(&Automation{Type: LinearRamp, At: t, Value: v})
	if p.sink != nil {
		p.sink.LinearRampToValueAtTime(v, t)
	}
}

// ExponentialRampToValueAtTime schedules an exponential ramp from the
// previous command to the value, ending at time t. The value is clamped to
// MinOutput.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) error {
	if err := p.check("ExponentialRampToValueAtTime", v, t); err != nil {
		return err
	}
	p.exponentialRamp(p.fromType(v), t)
	return nil
}

func (p *Param) addExponentialRamp(v, t float64) {
	v = math.Max(MinOutput, v)
	p.add(&Automation{Type: ExponentialRamp, At: t, Value: v})
	if p.sink != nil {
		p.sink.ExponentialRampToValueAtTime(v, t)
	}
}

// SetTargetAtTime starts an exponential approach to the value at time t.
// Time constant must be positive.
func (p *Param) SetTargetAtTime(v, t, timeConstant float64) error {
	if err := p.check("SetTargetAtTime", v, t); err != nil {
		return err
	}
	if !finite(timeConstant) || timeConstant <= 0 {
		return cadence.InvalidArgument("SetTargetAtTime", "time constant", timeConstant)
	}
	p.setTarget(p.fromType(v), t, timeConstant)
	return nil
}

func (p *Param) addTarget(v, t, constant float64) {
	p.add(&Automation{Type: SetTarget, At: t, Value: v, Constant: constant})
	if p.sink != nil {
		p.sink.SetTargetAtTime(v, t, constant)
	}
}

// SetValueCurveAtTime sets the first value at time t and ramps linearly
// through the rest, evenly spaced over duration. Values are multiplied by
// scaling and must stay in range both before and after it.
func (p *Param) SetValueCurveAtTime(values []float64, t, duration, scaling float64) error {
	const op = "SetValueCurveAtTime"
	if len(values) == 0 {
		return cadence.InvalidArgument(op, "values", values)
	}
	if err := p.checkTime(op, t); err != nil {
		return err
	}
	if err := p.checkDuration(op, duration); err != nil {
		return err
	}
	if !finite(scaling) {
		return cadence.InvalidArgument(op, "scaling", scaling)
	}
	scaled := make([]float64, len(values))
	for i, v := range values {
		if err := p.checkValue(op, v); err != nil {
			return err
		}
		scaled[i] = p.fromType(v) * scaling
		if err := p.checkValue(op, p.toType(scaled[i])); err != nil {
			return err
		}
	}
	p.addSetValue(scaled[0], t)
	if len(scaled) == 1 {
		return nil
	}
	segment := duration / float64(len(scaled)-1)
	for i := 1; i < len(scaled); i++ {
		p.addLinearRamp(scaled[i], t+float64(i)*segment)
	}
	return nil
}

// CancelScheduledValues removes all commands at or after time t.
func (p *Param) CancelScheduledValues(t float64) error {
	if err := p.checkTime("CancelScheduledValues", t); err != nil {
		return err
	}
	p.cancel(t)
	return nil
}

func (p *Param) cancel(t float64) {
	p.events.Cancel(t)
	if p.sink != nil {
		p.sink.CancelScheduledValues(t)
	}
	p.log.WithField("time", t).Debug("cancel")
}

// CancelAndHoldAtTime samples the value at time t, removes every command
// after it and holds the sampled value from t on. An in-flight ramp is
// truncated at t so the curve stays continuous.
func (p *Param) CancelAndHoldAtTime(t float64) error {
	if err := p.checkTime("CancelAndHoldAtTime", t); err != nil {
		return err
	}
	p.cancelAndHold(t)
	return nil
}

func (p *Param) cancelAndHold(t float64) {
	value := p.valueAt(t)
	before, okBefore := p.events.Get(t)
	after, okAfter := p.events.GetAfter(t)
	switch {
	case okBefore && before.At == t:
		if okAfter {
			p.cancel(after.At)
		} else {
			if p.sink != nil {
				p.sink.CancelAndHoldAtTime(t)
			}
			p.events.Cancel(t + p.sampleTime())
		}
	case okAfter:
		p.cancel(after.At)
		switch after.Type {
		case LinearRamp:
			p.addLinearRamp(value, t)
		case ExponentialRamp:
			p.exponentialRamp(value, t)
		}
	}
	p.addSetValue(value, t)
}

// SetRampPoint holds the value at time t so a following ramp starts from
// it. Zero is replaced with MinOutput so exponential ramps can follow.
func (p *Param) SetRampPoint(t float64) error {
	if err := p.checkTime("SetRampPoint", t); err != nil {
		return err
	}
	p.setRampPoint(t)
	return nil
}

func (p *Param) setRampPoint(t float64) {
	value := p.valueAt(t)
	p.cancelAndHold(t)
	if value == 0 {
		value = MinOutput
	}
	p.addSetValue(value, t)
}

func (p *Param) checkRamp(op string, v, rampTime, start float64) error {
	if err := p.check(op, v, start); err != nil {
		return err
	}
	return p.checkDuration(op, rampTime)
}

// RampTo ramps to the value over rampTime starting at start. Frequency,
// bpm and decibel parameters ramp exponentially, others linearly.
func (p *Param) RampTo(v, rampTime, start float64) error {
	if p.units.exponential() {
		return p.ExponentialRampTo(v, rampTime, start)
	}
	return p.LinearRampTo(v, rampTime, start)
}

// LinearRampTo ramps linearly to the value over rampTime starting at start.
func (p *Param) LinearRampTo(v, rampTime, start float64) error {
	if err := p.checkRamp("LinearRampTo", v, rampTime, start); err != nil {
		return err
	}
	p.setRampPoint(start)
	p.addLinearRamp(p.fromType(v), start+rampTime)
	return nil
}

// ExponentialRampTo ramps exponentially to the value over rampTime
// starting at start.
func (p *Param) ExponentialRampTo(v, rampTime, start float64) error {
	if err := p.checkRamp("ExponentialRampTo", v, rampTime, start); err != nil {
		return err
	}
	p.setRampPoint(start)
	p.exponentialRamp(p.fromType(v), start+rampTime)
	return nil
}

// TargetRampTo approaches the value exponentially and reaches it after
// rampTime.
func (p *Param) TargetRampTo(v, rampTime, start float64) error {
	if err := p.checkRamp("TargetRampTo", v, rampTime, start); err != nil {
		return err
	}
	p.setRampPoint(start)
	p.exponentialApproach(p.fromType(v), start, rampTime)
	return nil
}

// ExponentialApproachValueAtTime approaches the value exponentially
// starting at time t and lands on it exactly after rampTime.
func (p *Param) ExponentialApproachValueAtTime(v, t, rampTime float64) error {
	if err := p.checkRamp("ExponentialApproachValueAtTime", v, rampTime, t); err != nil {
		return err
	}
	p.exponentialApproach(p.fromType(v), t, rampTime)
	return nil
}

func (p *Param) exponentialApproach(v, t, rampTime float64) {
	constant := math.Log(rampTime+1) / math.Log(200)
	p.setTarget(v, t, constant)
	p.cancelAndHold(t + rampTime*0.9)
	p.addLinearRamp(v, t+rampTime)
}

// GetValueAtTime returns the value in units at time t.
func (p *Param) GetValueAtTime(t float64) float64 {
	v := p.valueAt(t)
	for _, in := range p.inputs {
		v += in.fn(t)
	}
	return p.toType(v)
}

// valueAt evaluates the automation curve in the native domain.
func (p *Param) valueAt(t float64) float64 {
	before, ok := p.events.Get(t)
	if !ok {
		return p.initial
	}
	after, okAfter := p.events.GetAfter(t)
	if before.Type == SetTarget && (!okAfter || !after.Type.isRamp()) {
		return exponentialApproach(before.At, p.previousValue(before), before.Value, before.Constant, t)
	}
	if !okAfter || !after.Type.isRamp() {
		return before.Value
	}
	v0 := before.Value
	if before.Type == SetTarget {
		v0 = p.previousValue(before)
	}
	if after.Type == LinearRamp {
		return linearInterpolate(before.At, v0, after.At, after.Value, t)
	}
	return exponentialInterpolate(before.At, v0, after.At, after.Value, t)
}

// previousValue returns the value a command starts from.
func (p *Param) previousValue(a *Automation) float64 {
	if prev, ok := p.events.Previous(a); ok {
		return prev.Value
	}
	return p.initial
}

// Value returns the value at the current time of the context.
func (p *Param) Value() float64 {
	return p.GetValueAtTime(p.now())
}

// SetValue cancels scheduled values from now on and sets the value now.
func (p *Param) SetValue(v float64) error {
	now := p.now()
	if err := p.check("SetValue", v, now); err != nil {
		return err
	}
	p.cancel(now)
	p.addSetValue(p.fromType(v), now)
	return nil
}

// Connect sums input into the parameter value. Returns id to disconnect.
func (p *Param) Connect(in Input) int {
	p.nextInput++
	p.inputs = append(p.inputs, input{id: p.nextInput, fn: in})
	return p.nextInput
}

// Disconnect removes the input. Unknown ids are ignored.
func (p *Param) Disconnect(id int) {
	for i := range p.inputs {
		if p.inputs[i].id == id {
			p.inputs = append(p.inputs[:i], p.inputs[i+1:]...)
			return
		}
	}
}

// Dispose removes all automation and inputs. Native parameter receives
// cancellation of all scheduled values.
func (p *Param) Dispose() {
	if p.sink != nil {
		p.sink.CancelScheduledValues(0)
	}
	p.events.Dispose()
	p.inputs = nil
}
