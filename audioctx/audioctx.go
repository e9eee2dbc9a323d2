// Package audioctx provides audio clocks which drive the engine.
//
// Offline is advanced by its owner and suits rendering and tests. Realtime
// follows the monotonic wall clock from a ticker goroutine.
package audioctx

import (
	"sync"
)

const (
	// DefaultSampleRate is used when sample rate is not provided.
	DefaultSampleRate = 44100
	// DefaultBlockSize is the number of frames between ticks.
	DefaultBlockSize = 128
)

// listeners is a registry of tick listeners safe to modify from a running
// listener.
type listeners struct {
	m      sync.Mutex
	fns    map[int]func()
	order  []int
	nextID int
}

func (l *listeners) add(fn func()) func() {
	l.m.Lock()
	defer l.m.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	l.nextID++
	id := l.nextID
	l.fns[id] = fn
	l.order = append(l.order, id)
	return func() {
		l.remove(id)
	}
}

func (l *listeners) remove(id int) {
	l.m.Lock()
	defer l.m.Unlock()
	if _, ok := l.fns[id]; !ok {
		return
	}
	delete(l.fns, id)
	for i := range l.order {
		if l.order[i] == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

func (l *listeners) len() int {
	l.m.Lock()
	defer l.m.Unlock()
	return len(l.order)
}

// fire calls listeners registered before the call in registration order.
// Listeners removed during the call are skipped.
func (l *listeners) fire() {
	l.m.Lock()
	ids := append([]int(nil), l.order...)
	l.m.Unlock()
	for _, id := range ids {
		l.m.Lock()
		fn, ok := l.fns[id]
		l.m.Unlock()
		if ok {
			fn()
		}
	}
}
