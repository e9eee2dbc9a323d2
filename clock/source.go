package clock

import (
	"math"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/param"
	"github.com/dudk/cadence/timeline"
)

// offset is a tick position set at a time.
type offset struct {
	At      float64
	Seconds float64
	Ticks   float64
}

// Time implements timeline.Event.
func (o *offset) Time() float64 {
	return o.At
}

// TickSource counts ticks of a frequency curve between start, pause and
// stop transitions. It answers tick and seconds positions for any time
// without waiting for the clock to advance.
type TickSource struct {
	ctx       cadence.Context
	frequency *param.TickParam
	state     *timeline.StateTimeline[State]
	offsets   *timeline.Timeline[*offset]
}

// NewTickSource returns a stopped tick source at tick zero.
func NewTickSource(ctx cadence.Context, frequency *param.TickParam) *TickSource {
	ts := &TickSource{
		ctx:       ctx,
		frequency: frequency,
		state:     timeline.NewStateTimeline(Stopped),
		offsets:   timeline.New[*offset](),
	}
	ts.state.SetStateAtTime(Stopped, 0)
	ts.SetTicksAtTime(0, 0)
	return ts
}

// Frequency returns the ticks per second curve.
func (ts *TickSource) Frequency() *param.TickParam {
	return ts.frequency
}

func (ts *TickSource) sampleTime() float64 {
	return cadence.SampleTime(ts.ctx)
}

// GetStateAtTime returns the state at time t.
func (ts *TickSource) GetStateAtTime(t float64) State {
	return ts.state.GetValueAtTime(t)
}

// Start starts counting at time t. Non-negative offset sets the tick
// position at t, negative offset continues from the current one.
func (ts *TickSource) Start(t, offset float64) {
	if ts.state.GetValueAtTime(t) == Started {
		return
	}
	ts.state.SetStateAtTime(Started, t)
	if offset >= 0 {
		ts.SetTicksAtTime(offset, t)
	}
}

// Stop stops counting at time t and resets ticks to zero.
func (ts *TickSource) Stop(t float64) {
	if ts.state.GetValueAtTime(t) == Stopped {
		if e, ok := ts.state.Get(t); ok && e.At > 0 {
			ts.offsets.Cancel(e.At)
			ts.state.Cancel(e.At)
		}
	}
	ts.state.Cancel(t)
	ts.state.SetStateAtTime(Stopped, t)
	ts.SetTicksAtTime(0, t)
}

// Pause freezes ticks at time t.
func (ts *TickSource) Pause(t float64) {
	if ts.state.GetValueAtTime(t) == Started {
		ts.state.SetStateAtTime(Paused, t)
	}
}

// Cancel removes transitions and tick positions scheduled at or after t.
func (ts *TickSource) Cancel(t float64) {
	ts.state.Cancel(t)
	ts.offsets.Cancel(t)
}

// elapsed integrates started periods since the last stop until t. Offsets
// reset the accumulated value.
func (ts *TickSource) elapsed(t float64, fromOffset func(*offset) float64, period func(from, to float64) float64) float64 {
	stop, ok := ts.state.GetLastState(Stopped, t)
	if !ok {
		return 0
	}
	probe := &timeline.StateEvent[State]{At: t, State: Paused}
	ts.state.Add(probe)
	defer ts.state.Remove(probe)

	last := stop
	var value float64
	ts.state.ForEachBetween(stop.At, t+ts.sampleTime(), func(e *timeline.StateEvent[State]) {
		start := last.At
		if o, ok := ts.offsets.Get(e.At); ok && o.At >= last.At {
			value = fromOffset(o)
			start = o.At
		}
		if last.State == Started && e.State != Started {
			value += period(start, e.At)
		}
		last = e
	})
	return value
}

// GetTicksAtTime returns the tick position at time t.
func (ts *TickSource) GetTicksAtTime(t float64) float64 {
	return ts.elapsed(t,
		func(o *offset) float64 { return o.Ticks },
		func(from, to float64) float64 {
			return ts.frequency.GetTicksAtTime(to) - ts.frequency.GetTicksAtTime(from)
		},
	)
}

// GetSecondsAtTime returns the elapsed started time at time t.
func (ts *TickSource) GetSecondsAtTime(t float64) float64 {
	return ts.elapsed(t,
		func(o *offset) float64 { return o.Seconds },
		func(from, to float64) float64 { return to - from },
	)
}

// SetTicksAtTime sets the tick position at time t.
func (ts *TickSource) SetTicksAtTime(ticks, t float64) {
	ts.offsets.Cancel(t)
	ts.offsets.Add(&offset{
		At:      t,
		Seconds: ts.frequency.GetDurationOfTicks(ticks, t),
		Ticks:   ticks,
	})
}

// GetTimeOfTick returns the time when the tick is reached, assuming the
// state at before continues.
func (ts *TickSource) GetTimeOfTick(tick, before float64) float64 {
	o, ok := ts.offsets.Get(before)
	if !ok {
		o = &offset{}
	}
	start := o.At
	if e, ok := ts.state.Get(before); ok {
		start = math.Max(start, e.At)
	}
	absolute := ts.frequency.GetTicksAtTime(start) + tick - o.Ticks
	return ts.frequency.GetTimeOfTick(absolute)
}

// ForEachTickBetween calls fn for every integer tick reached in
// [start, end) with its time and tick position.
func (ts *TickSource) ForEachTickBetween(start, end float64, fn func(t float64, ticks int)) {
	last, ok := ts.state.Get(start)
	ts.state.ForEachBetween(start, end, func(e *timeline.StateEvent[State]) {
		if ok && last.State == Started && e.State != Started {
			ts.ForEachTickBetween(math.Max(last.At, start), e.At-ts.sampleTime(), fn)
		}
		last, ok = e, true
	})
	if !ok || last.State != Started {
		return
	}
	from := math.Max(last.At, start)
	startTicks := ts.frequency.GetTicksAtTime(from)
	diff := startTicks - ts.frequency.GetTicksAtTime(last.At)
	shift := math.Ceil(diff) - diff
	if math.Abs(shift-1) < 1e-9 {
		shift = 0
	}
	next := ts.frequency.GetTimeOfTick(startTicks + shift)
	for next < end {
		fn(next, int(math.Round(ts.GetTicksAtTime(next))))
		next += ts.frequency.GetDurationOfTicks(1, next)
	}
}

// Dispose removes all transitions and positions.
func (ts *TickSource) Dispose() {
	ts.state.Dispose()
	ts.offsets.Dispose()
}
