// Package mock provides mocks for engine collaborators and allows to
// execute integration tests.
package mock

import (
	"sync"
)

// Call is a single recorded automation command.
type Call struct {
	Method   string
	Value    float64
	Time     float64
	Constant float64
}

// Sink mocks a cadence.Sink interface. It records every received command.
type Sink struct {
	counter
	m     sync.Mutex
	calls []Call
}

func (m *Sink) record(c Call) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, c)
	m.advance()
}

// SetValueAtTime implements cadence.Sink.
func (m *Sink) SetValueAtTime(value, time float64) {
	m.record(Call{Method: "setValueAtTime", Value: value, Time: time})
}

// LinearRampToValueAtTime implements cadence.Sink.
func (m *Sink) LinearRampToValueAtTime(value, time float64) {
	m.record(Call{Method: "linearRampToValueAtTime", Value: value, Time: time})
}

// ExponentialRampToValueAtTime implements cadence.Sink.
func (m *Sink) ExponentialRampToValueAtTime(value, time float64) {
	m.record(Call{Method: "exponentialRampToValueAtTime", Value: value, Time: time})
}

// SetTargetAtTime implements cadence.Sink.
func (m *Sink) SetTargetAtTime(value, time, timeConstant float64) {
	m.record(Call{Method: "setTargetAtTime", Value: value, Time: time, Constant: timeConstant})
}

// CancelScheduledValues implements cadence.Sink.
func (m *Sink) CancelScheduledValues(time float64) {
	m.record(Call{Method: "cancelScheduledValues", Time: time})
}

// CancelAndHoldAtTime implements cadence.Sink.
func (m *Sink) CancelAndHoldAtTime(time float64) {
	m.record(Call{Method: "cancelAndHoldAtTime", Time: time})
}

// Calls returns recorded commands.
func (m *Sink) Calls() []Call {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]Call(nil), m.calls...)
}

// Last returns the last recorded command.
func (m *Sink) Last() (Call, bool) {
	m.m.Lock()
	defer m.m.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Context mocks a cadence.Context interface. Time only moves with Advance.
type Context struct {
	Time  float64
	Ahead float64
	Rate  float64

	listeners []*listener
}

type listener struct {
	fn func()
}

// CurrentTime implements cadence.Context.
func (c *Context) CurrentTime() float64 {
	return c.Time
}

// LookAhead implements cadence.Context.
func (c *Context) LookAhead() float64 {
	return c.Ahead
}

// SampleRate implements cadence.Context. Default is 44100.
func (c *Context) SampleRate() float64 {
	if c.Rate == 0 {
		return 44100
	}
	return c.Rate
}

// OnTick implements cadence.Context.
func (c *Context) OnTick(fn func()) func() {
	l := &listener{fn: fn}
	c.listeners = append(c.listeners, l)
	return func() {
		for i := range c.listeners {
			if c.listeners[i] == l {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns number of registered tick listeners.
func (c *Context) Listeners() int {
	return len(c.listeners)
}

// Advance moves time by block seconds n times and calls listeners after
// every move.
func (c *Context) Advance(block float64, n int) {
	for i := 0; i < n; i++ {
		c.Time += block
		for _, l := range append([]*listener(nil), c.listeners...) {
			l.fn()
		}
	}
}

// AdvanceTo moves time by block seconds until it reaches end.
func (c *Context) AdvanceTo(block, end float64) {
	for c.Time+block <= end+1e-9 {
		c.Advance(block, 1)
	}
}

// Callback records invocations of scheduled callbacks.
type Callback struct {
	counter
	m           sync.Mutex
	times       []float64
	ErrorOnCall error
	PanicOnCall interface{}
	Hook        func(time float64)
}

// Fn returns a callback which records its time argument.
func (m *Callback) Fn() func(float64) error {
	return func(time float64) error {
		m.m.Lock()
		m.times = append(m.times, time)
		m.advance()
		m.m.Unlock()
		if m.Hook != nil {
			m.Hook(time)
		}
		if m.PanicOnCall != nil {
			panic(m.PanicOnCall)
		}
		return m.ErrorOnCall
	}
}

// Times returns recorded times.
func (m *Callback) Times() []float64 {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]float64(nil), m.times...)
}

// Reset clears recorded invocations.
func (m *Callback) Reset() {
	m.m.Lock()
	defer m.m.Unlock()
	m.times = nil
	m.reset()
}

// counter counts calls.
type counter struct {
	calls int
}

func (c *counter) reset() {
	c.calls = 0
}

func (c *counter) advance() {
	c.calls++
}

// Count returns number of calls.
func (c *counter) Count() int {
	return c.calls
}
