// Package emitter provides explicit observer registration for transport
// and clock notifications.
package emitter

import (
	"fmt"
	"sync"
)

// Event is a kind of notification.
type Event int

const (
	// Start is emitted when a clock or transport starts. Ticks holds the
	// offset.
	Start Event = iota
	// Stop is emitted when a clock or transport stops.
	Stop
	// Pause is emitted when a clock or transport pauses.
	Pause
	// LoopEnd is emitted when transport reaches the loop end.
	LoopEnd
	// LoopStart is emitted when transport jumps to the loop start. Ticks
	// holds the loop start.
	LoopStart
	// Loop is emitted after every loop jump.
	Loop
)

func (e Event) String() string {
	switch e {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Pause:
		return "pause"
	case LoopEnd:
		return "loopEnd"
	case LoopStart:
		return "loopStart"
	case Loop:
		return "loop"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Notification is a single emitted event.
type Notification struct {
	Event Event
	// Time of the event in seconds of the audio clock.
	Time float64
	// Ticks position related to the event.
	Ticks float64
}

// Listener receives notifications.
type Listener func(Notification)

type listener struct {
	fn   Listener
	once bool
}

// Emitter keeps listeners per event. Listeners are called synchronously in
// registration order. Watch channels receive notifications without
// blocking the emitter.
type Emitter struct {
	m         sync.Mutex
	listeners map[Event][]*listener
	watchers  []chan Notification
}

// New returns a new emitter.
func New() *Emitter {
	return &Emitter{
		listeners: make(map[Event][]*listener),
	}
}

// On registers fn for the event. Returned function removes it.
func (e *Emitter) On(ev Event, fn Listener) (off func()) {
	return e.add(ev, &listener{fn: fn})
}

// Once registers fn which is removed after the first call.
func (e *Emitter) Once(ev Event, fn Listener) (off func()) {
	return e.add(ev, &listener{fn: fn, once: true})
}

func (e *Emitter) add(ev Event, l *listener) func() {
	e.m.Lock()
	defer e.m.Unlock()
	e.listeners[ev] = append(e.listeners[ev], l)
	return func() {
		e.remove(ev, l)
	}
}

func (e *Emitter) remove(ev Event, l *listener) {
	e.m.Lock()
	defer e.m.Unlock()
	ls := e.listeners[ev]
	for i := range ls {
		if ls[i] == l {
			e.listeners[ev] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Off removes all listeners of the event.
func (e *Emitter) Off(ev Event) {
	e.m.Lock()
	defer e.m.Unlock()
	delete(e.listeners, ev)
}

// Emit calls listeners of the notification event and sends it to watch
// channels. Watchers which are not ready drop the notification.
func (e *Emitter) Emit(n Notification) {
	e.m.Lock()
	ls := append([]*listener(nil), e.listeners[n.Event]...)
	watchers := append([]chan Notification(nil), e.watchers...)
	e.m.Unlock()

	for _, l := range ls {
		if l.once {
			e.remove(n.Event, l)
		}
		l.fn(n)
	}
	for _, ch := range watchers {
		select {
		case ch <- n:
		default:
		}
	}
}

// Watch returns a buffered channel which receives every notification.
func (e *Emitter) Watch(size int) <-chan Notification {
	ch := make(chan Notification, size)
	e.m.Lock()
	e.watchers = append(e.watchers, ch)
	e.m.Unlock()
	return ch
}

// Unwatch closes and removes the channel returned by Watch.
func (e *Emitter) Unwatch(ch <-chan Notification) {
	e.m.Lock()
	defer e.m.Unlock()
	for i := range e.watchers {
		if e.watchers[i] == ch {
			close(e.watchers[i])
			e.watchers = append(e.watchers[:i], e.watchers[i+1:]...)
			return
		}
	}
}

// Dispose removes all listeners and closes watch channels.
func (e *Emitter) Dispose() {
	e.m.Lock()
	defer e.m.Unlock()
	e.listeners = make(map[Event][]*listener)
	for _, ch := range e.watchers {
		close(ch)
	}
	e.watchers = nil
}
