// Package timeline provides time-sorted event containers.
//
// Timeline keeps events sorted ascending by time with ties kept in insertion
// order. IntervalTimeline stores [time, time+duration) intervals in an
// augmented AVL tree for overlap queries. StateTimeline is a Timeline of
// state transitions.
//
// None of the containers is safe for concurrent use: each one has a single
// owner which is the only mutator.
package timeline

import (
	"math"
	"sort"

	"github.com/dudk/cadence"
)

// Event is anything placed on a timeline.
type Event interface {
	comparable
	Time() float64
}

// KeyFunc extracts a monotonic sort key from an event. Keys other than time
// must grow together with time, e.g. elapsed ticks of a tempo curve.
type KeyFunc[E Event] func(E) float64

// Timeline is a sorted-by-time event store.
type Timeline[E Event] struct {
	events     []E
	memory     int
	increasing bool
}

// Option configures a Timeline.
type Option func(*options)

type options struct {
	memory     int
	increasing bool
}

// WithMemory bounds the number of stored events. Oldest events are evicted
// once the bound is exceeded.
func WithMemory(n int) Option {
	return func(o *options) {
		o.memory = n
	}
}

// WithIncreasing makes Add reject events earlier than the last one.
func WithIncreasing() Option {
	return func(o *options) {
		o.increasing = true
	}
}

// New creates an empty timeline.
func New[E Event](opts ...Option) *Timeline[E] {
	o := options{memory: math.MaxInt32}
	for _, opt := range opts {
		opt(&o)
	}
	return &Timeline[E]{
		memory:     o.memory,
		increasing: o.increasing,
	}
}

func byTime[E Event](e E) float64 {
	return e.Time()
}

// Len returns number of events.
func (tl *Timeline[E]) Len() int {
	return len(tl.events)
}

// Add inserts the event after all events with time less or equal to its
// time.
func (tl *Timeline[E]) Add(e E) error {
	t := e.Time()
	if math.IsNaN(t) {
		return cadence.InvalidArgument("timeline.Add", "time", t)
	}
	if tl.increasing && len(tl.events) > 0 && t < tl.events[len(tl.events)-1].Time() {
		return cadence.InvalidArgument("timeline.Add", "time", t)
	}
	i := tl.search(byTime[E], t) + 1
	var zero E
	tl.events = append(tl.events, zero)
	copy(tl.events[i+1:], tl.events[i:])
	tl.events[i] = e
	if diff := len(tl.events) - tl.memory; diff > 0 {
		tl.events = append(tl.events[:0:0], tl.events[diff:]...)
	}
	return nil
}

// Remove deletes the event. Returns false if event is not in timeline.
func (tl *Timeline[E]) Remove(e E) bool {
	i := tl.index(e)
	if i < 0 {
		return false
	}
	tl.events = append(tl.events[:i], tl.events[i+1:]...)
	return true
}

// index looks up the event position starting from its time.
func (tl *Timeline[E]) index(e E) int {
	t := e.Time()
	for i := tl.search(byTime[E], t); i >= 0 && tl.events[i].Time() == t; i-- {
		if tl.events[i] == e {
			return i
		}
	}
	for i := range tl.events {
		if tl.events[i] == e {
			return i
		}
	}
	return -1
}

// Get returns the latest event with time less or equal to t. Among events
// with the same time the last added one is returned.
func (tl *Timeline[E]) Get(t float64) (E, bool) {
	return tl.GetBy(byTime[E], t)
}

// GetBy is Get over an alternative key.
func (tl *Timeline[E]) GetBy(key KeyFunc[E], v float64) (E, bool) {
	i := tl.search(key, v)
	if i < 0 {
		var zero E
		return zero, false
	}
	return tl.events[i], true
}

// GetAfter returns the earliest event with time greater than t.
func (tl *Timeline[E]) GetAfter(t float64) (E, bool) {
	return tl.GetAfterBy(byTime[E], t)
}

// GetAfterBy is GetAfter over an alternative key.
func (tl *Timeline[E]) GetAfterBy(key KeyFunc[E], v float64) (E, bool) {
	i := tl.search(key, v) + 1
	if i < len(tl.events) {
		return tl.events[i], true
	}
	var zero E
	return zero, false
}

// GetBefore returns the latest event with time strictly less than t.
func (tl *Timeline[E]) GetBefore(t float64) (E, bool) {
	i := sort.Search(len(tl.events), func(i int) bool {
		return tl.events[i].Time() >= t
	}) - 1
	if i < 0 {
		var zero E
		return zero, false
	}
	return tl.events[i], true
}

// Previous returns the event stored right before e.
func (tl *Timeline[E]) Previous(e E) (E, bool) {
	var zero E
	i := tl.index(e)
	if i < 1 {
		return zero, false
	}
	return tl.events[i-1], true
}

// Peek returns the first event.
func (tl *Timeline[E]) Peek() (E, bool) {
	if len(tl.events) == 0 {
		var zero E
		return zero, false
	}
	return tl.events[0], true
}

// Last returns the last event.
func (tl *Timeline[E]) Last() (E, bool) {
	if len(tl.events) == 0 {
		var zero E
		return zero, false
	}
	return tl.events[len(tl.events)-1], true
}

// Shift removes and returns the first event.
func (tl *Timeline[E]) Shift() (E, bool) {
	e, ok := tl.Peek()
	if ok {
		tl.events = tl.events[1:]
	}
	return e, ok
}

// Cancel removes all events with time greater or equal to after.
func (tl *Timeline[E]) Cancel(after float64) {
	i := sort.Search(len(tl.events), func(i int) bool {
		return tl.events[i].Time() >= after
	})
	var zero E
	for j := i; j < len(tl.events); j++ {
		tl.events[j] = zero
	}
	tl.events = tl.events[:i]
}

// CancelBefore removes all events with time less or equal to t.
func (tl *Timeline[E]) CancelBefore(t float64) {
	i := tl.search(byTime[E], t)
	if i >= 0 {
		tl.events = append(tl.events[:0:0], tl.events[i+1:]...)
	}
}

// ForEach calls fn for every event.
func (tl *Timeline[E]) ForEach(fn func(E)) {
	tl.iterate(fn, 0, len(tl.events))
}

// ForEachBefore calls fn for every event with time less or equal to t.
func (tl *Timeline[E]) ForEachBefore(t float64, fn func(E)) {
	tl.iterate(fn, 0, tl.search(byTime[E], t)+1)
}

// ForEachAfter calls fn for every event with time greater than t.
func (tl *Timeline[E]) ForEachAfter(t float64, fn func(E)) {
	tl.iterate(fn, tl.search(byTime[E], t)+1, len(tl.events))
}

// ForEachFrom calls fn for every event with time greater or equal to t.
func (tl *Timeline[E]) ForEachFrom(t float64, fn func(E)) {
	i := sort.Search(len(tl.events), func(i int) bool {
		return tl.events[i].Time() >= t
	})
	tl.iterate(fn, i, len(tl.events))
}

// ForEachBetween calls fn for every event with from <= time < to.
func (tl *Timeline[E]) ForEachBetween(from, to float64, fn func(E)) {
	lo := sort.Search(len(tl.events), func(i int) bool {
		return tl.events[i].Time() >= from
	})
	hi := sort.Search(len(tl.events), func(i int) bool {
		return tl.events[i].Time() >= to
	})
	tl.iterate(fn, lo, hi)
}

// ForEachAtTime calls fn for every event with exactly time t in insertion
// order.
func (tl *Timeline[E]) ForEachAtTime(t float64, fn func(E)) {
	hi := tl.search(byTime[E], t)
	if hi < 0 || tl.events[hi].Time() != t {
		return
	}
	lo := hi
	for lo > 0 && tl.events[lo-1].Time() == t {
		lo--
	}
	tl.iterate(fn, lo, hi+1)
}

// Dispose removes all events.
func (tl *Timeline[E]) Dispose() {
	tl.events = nil
}

// iterate calls fn over a snapshot of [lo, hi) so fn may mutate the
// timeline.
func (tl *Timeline[E]) iterate(fn func(E), lo, hi int) {
	if lo >= hi {
		return
	}
	snapshot := make([]E, hi-lo)
	copy(snapshot, tl.events[lo:hi])
	for _, e := range snapshot {
		fn(e)
	}
}

// search returns index of the last event with key less or equal to v,
// -1 if there is no such event.
func (tl *Timeline[E]) search(key KeyFunc[E], v float64) int {
	return sort.Search(len(tl.events), func(i int) bool {
		return key(tl.events[i]) > v
	}) - 1
}
