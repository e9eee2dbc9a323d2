package transport

import (
	"math"

	"github.com/dudk/cadence/emitter"
)

// Callback is a scheduled function. It receives the audio clock time of
// the event.
type Callback func(time float64) error

// event is a one-shot event at a tick.
type event struct {
	id    int
	ticks float64
	fn    Callback
	once  bool
	// owner is the repeat event which created the occurrence.
	owner *repeatEvent
}

// Time implements timeline.Event. Events are keyed by ticks.
func (e *event) Time() float64 {
	return e.ticks
}

// repeatEvent is an event repeated every interval ticks within
// [ticks, ticks+duration). It keeps at most two pending one-shot events on
// the transport and creates the following ones when they fire.
type repeatEvent struct {
	t        *Transport
	id       int
	ticks    float64
	duration float64
	interval float64
	fn       Callback

	nextTick  float64
	currentID int
	nextID    int
	off       []func()
}

func newRepeatEvent(t *Transport, id int, fn Callback, ticks, interval, duration float64) *repeatEvent {
	r := &repeatEvent{
		t:        t,
		id:       id,
		ticks:    ticks,
		duration: duration,
		interval: interval,
		fn:       fn,
		nextTick: ticks,
	}
	restart := func(n emitter.Notification) {
		r.restart(n.Time)
	}
	r.off = append(r.off, t.On(emitter.Start, restart), t.On(emitter.LoopStart, restart))
	return r
}

// Time implements timeline.IntervalEvent.
func (r *repeatEvent) Time() float64 {
	return r.ticks
}

// Duration implements timeline.IntervalEvent.
func (r *repeatEvent) Duration() float64 {
	return r.duration
}

func (r *repeatEvent) end() float64 {
	return r.ticks + r.duration
}

// createEvent schedules the occurrence at nextTick if it's within duration.
func (r *repeatEvent) createEvent() int {
	if r.nextTick < r.end() {
		return r.schedule(r.nextTick)
	}
	return 0
}

func (r *repeatEvent) schedule(ticks float64) int {
	id := r.t.scheduleTicks(r.invoke, ticks, true)
	r.t.events[id].owner = r
	return id
}

// createEvents schedules the occurrence after the pending next one once the
// next one is reached.
func (r *repeatEvent) createEvents(ticks float64) {
	if ticks >= r.ticks && ticks >= r.nextTick && r.nextTick+r.interval < r.end() {
		r.nextTick += r.interval
		r.currentID = r.nextID
		r.nextID = r.schedule(r.nextTick)
	}
}

func (r *repeatEvent) invoke(time float64) error {
	r.createEvents(r.t.dispatching)
	return r.fn(time)
}

// restart drops pending occurrences and schedules the two following the
// position at time.
func (r *repeatEvent) restart(time float64) {
	r.t.Clear(r.currentID)
	r.t.Clear(r.nextID)
	r.nextTick = r.ticks
	ticks := float64(r.t.GetTicksAtTime(time))
	if ticks > r.ticks {
		r.nextTick = r.ticks + math.Ceil((ticks-r.ticks)/r.interval)*r.interval
	}
	r.currentID = r.createEvent()
	r.nextTick += r.interval
	r.nextID = r.createEvent()
}

func (r *repeatEvent) dispose() {
	r.t.Clear(r.currentID)
	r.t.Clear(r.nextID)
	r.currentID, r.nextID = 0, 0
	for _, off := range r.off {
		off()
	}
	r.off = nil
}
