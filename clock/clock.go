// Package clock converts the audio clock time into musical ticks.
//
// TickSource integrates a frequency curve into ticks between state
// transitions. Clock drives a TickSource from the ticks of a
// cadence.Context and calls its callback for every tick with the exact
// audio clock time of that tick.
package clock

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/emitter"
	"github.com/dudk/cadence/log"
	"github.com/dudk/cadence/metric"
	"github.com/dudk/cadence/param"
	"github.com/dudk/cadence/timeline"
)

// State of a clock.
type State int

const (
	// Stopped clock is at tick zero.
	Stopped State = iota
	// Started clock is counting ticks.
	Started
	// Paused clock keeps its tick position.
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Started:
		return "started"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Callback is called for every tick with its time and position.
type Callback func(t float64, ticks int)

// Clock calls its callback for every tick of the frequency curve. It
// emits Start, Stop and Pause notifications before the ticks of the same
// processing block.
type Clock struct {
	*emitter.Emitter
	uid        string
	log        *logrus.Entry
	ctx        cadence.Context
	callback   Callback
	source     *TickSource
	state      *timeline.StateTimeline[State]
	lastUpdate float64
	cancel     func()
	meter      *metric.Measure
}

// Option configures a Clock.
type Option func(*options)

type options struct {
	frequency *param.TickParam
	logger    logrus.FieldLogger
}

// WithFrequency sets the frequency curve in ticks per second. By default
// clock runs at 1 tick per second.
func WithFrequency(tp *param.TickParam) Option {
	return func(o *options) {
		o.frequency = tp
	}
}

// WithLogger sets logger. If this option is not provided, silent logger is
// used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a stopped clock and attaches it to context ticks.
func New(ctx cadence.Context, callback Callback, opts ...Option) (*Clock, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.frequency == nil {
		tp, err := param.NewTickParam(1, param.WithContext(ctx), param.WithLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("clock frequency: %w", err)
		}
		o.frequency = tp
	}
	c := &Clock{
		Emitter:  emitter.New(),
		uid:      cadence.NewUID(),
		ctx:      ctx,
		callback: callback,
		source:   NewTickSource(ctx, o.frequency),
		state:    timeline.NewStateTimeline(Stopped),
	}
	c.log = log.Component(o.logger, "clock", c.uid)
	c.state.SetStateAtTime(Stopped, 0)
	c.meter = metric.Meter(c)
	c.cancel = ctx.OnTick(c.loop)
	return c, nil
}

// UID returns unique id of the clock.
func (c *Clock) UID() string {
	return c.uid
}

// Frequency returns the ticks per second curve.
func (c *Clock) Frequency() *param.TickParam {
	return c.source.Frequency()
}

func (c *Clock) now() float64 {
	return cadence.Now(c.ctx)
}

// State returns the state at the current time.
func (c *Clock) State() State {
	return c.GetStateAtTime(c.now())
}

// GetStateAtTime returns the state at time t.
func (c *Clock) GetStateAtTime(t float64) State {
	return c.state.GetValueAtTime(t)
}

func checkTime(op string, t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return cadence.InvalidArgument(op, "time", t)
	}
	return nil
}

// Start starts the clock at time t. Non-negative offset sets the tick
// position, negative offset continues from the current one. Starting a
// started clock has no effect.
func (c *Clock) Start(t, offset float64) error {
	if err := checkTime("Clock.Start", t); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"time": t, "offset": offset}).Debug("start")
	if c.state.GetValueAtTime(t) == Started {
		return nil
	}
	c.state.SetStateAtTime(Started, t)
	c.source.Start(t, offset)
	if t < c.lastUpdate {
		c.Emit(emitter.Notification{Event: emitter.Start, Time: t, Ticks: c.source.GetTicksAtTime(t)})
	}
	return nil
}

// Stop stops the clock at time t and resets ticks to zero.
func (c *Clock) Stop(t float64) error {
	if err := checkTime("Clock.Stop", t); err != nil {
		return err
	}
	c.log.WithField("time", t).Debug("stop")
	c.state.Cancel(t)
	c.state.SetStateAtTime(Stopped, t)
	c.source.Stop(t)
	if t < c.lastUpdate {
		c.Emit(emitter.Notification{Event: emitter.Stop, Time: t})
	}
	return nil
}

// Pause pauses a started clock at time t.
func (c *Clock) Pause(t float64) error {
	if err := checkTime("Clock.Pause", t); err != nil {
		return err
	}
	c.log.WithField("time", t).Debug("pause")
	if c.state.GetValueAtTime(t) != Started {
		return nil
	}
	c.state.SetStateAtTime(Paused, t)
	c.source.Pause(t)
	if t < c.lastUpdate {
		c.Emit(emitter.Notification{Event: emitter.Pause, Time: t})
	}
	return nil
}

// Cancel removes transitions scheduled at or after t.
func (c *Clock) Cancel(t float64) {
	c.state.Cancel(t)
	c.source.Cancel(t)
}

// Ticks returns the tick position at the current time.
func (c *Clock) Ticks() int {
	return int(math.Ceil(c.GetTicksAtTime(c.now())))
}

// SetTicks sets the tick position at the current time.
func (c *Clock) SetTicks(ticks float64) {
	c.SetTicksAtTime(ticks, c.now())
}

// Seconds returns the elapsed started time at the current time.
func (c *Clock) Seconds() float64 {
	return c.GetSecondsAtTime(c.now())
}

// SetSeconds sets the tick position corresponding to the elapsed seconds.
func (c *Clock) SetSeconds(s float64) {
	now := c.now()
	c.SetTicksAtTime(c.Frequency().TimeToTicks(s, now), now)
}

// GetTicksAtTime returns the tick position at time t.
func (c *Clock) GetTicksAtTime(t float64) float64 {
	return c.source.GetTicksAtTime(t)
}

// SetTicksAtTime sets the tick position at time t.
func (c *Clock) SetTicksAtTime(ticks, t float64) {
	c.source.SetTicksAtTime(ticks, t)
}

// GetSecondsAtTime returns the elapsed started time at time t.
func (c *Clock) GetSecondsAtTime(t float64) float64 {
	return c.source.GetSecondsAtTime(t)
}

// GetTimeOfTick returns the time of the tick assuming the state at before
// continues.
func (c *Clock) GetTimeOfTick(tick, before float64) float64 {
	return c.source.GetTimeOfTick(tick, before)
}

// NextTickTime returns the time of the tick offset ticks after the
// position at when.
func (c *Clock) NextTickTime(offset, when float64) float64 {
	current := c.GetTicksAtTime(when)
	return c.source.GetTimeOfTick(current+offset, when)
}

// loop processes the window since the previous context tick.
func (c *Clock) loop() {
	start, end := c.lastUpdate, c.now()
	c.lastUpdate = end
	if start == end {
		return
	}
	c.state.ForEachBetween(start, end, func(e *timeline.StateEvent[State]) {
		switch e.State {
		case Started:
			c.log.WithField("time", e.At).Debug("started")
			c.Emit(emitter.Notification{Event: emitter.Start, Time: e.At, Ticks: c.source.GetTicksAtTime(e.At)})
		case Stopped:
			if e.At != 0 {
				c.log.WithField("time", e.At).Debug("stopped")
				c.Emit(emitter.Notification{Event: emitter.Stop, Time: e.At})
			}
		case Paused:
			c.log.WithField("time", e.At).Debug("paused")
			c.Emit(emitter.Notification{Event: emitter.Pause, Time: e.At})
		}
	})
	var ticks int64
	c.source.ForEachTickBetween(start, end, func(t float64, tick int) {
		ticks++
		c.callback(t, tick)
	})
	c.meter.Process(ticks, end-start)
}

// Dispose detaches the clock from the context and removes all state.
func (c *Clock) Dispose() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.source.Dispose()
	c.state.Dispose()
	c.Frequency().Dispose()
	c.Emitter.Dispose()
}
