package emitter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/cadence/emitter"
)

func TestEmit(t *testing.T) {
	e := emitter.New()
	var got []string
	offFirst := e.On(emitter.Start, func(n emitter.Notification) {
		got = append(got, "first "+n.Event.String())
	})
	e.On(emitter.Start, func(n emitter.Notification) {
		got = append(got, "second "+n.Event.String())
	})
	e.Once(emitter.Stop, func(n emitter.Notification) {
		got = append(got, "once "+n.Event.String())
	})

	e.Emit(emitter.Notification{Event: emitter.Start})
	e.Emit(emitter.Notification{Event: emitter.Stop})
	e.Emit(emitter.Notification{Event: emitter.Stop})
	offFirst()
	offFirst()
	e.Emit(emitter.Notification{Event: emitter.Start})
	e.Off(emitter.Start)
	e.Emit(emitter.Notification{Event: emitter.Start})

	assert.Equal(t, []string{
		"first start",
		"second start",
		"once stop",
		"second start",
	}, got)
}

func TestEmitDuringEmit(t *testing.T) {
	e := emitter.New()
	calls := 0
	e.On(emitter.Loop, func(n emitter.Notification) {
		calls++
		// registered during emit, called on the next one
		e.On(emitter.Loop, func(emitter.Notification) { calls += 10 })
	})
	e.Emit(emitter.Notification{Event: emitter.Loop})
	assert.Equal(t, 1, calls)
	e.Emit(emitter.Notification{Event: emitter.Loop})
	assert.Equal(t, 12, calls)
}

func TestWatch(t *testing.T) {
	e := emitter.New()
	ch := e.Watch(1)
	e.Emit(emitter.Notification{Event: emitter.Pause, Time: 1, Ticks: 96})
	// dropped, channel is full
	e.Emit(emitter.Notification{Event: emitter.Stop, Time: 2})

	n := <-ch
	assert.Equal(t, emitter.Notification{Event: emitter.Pause, Time: 1, Ticks: 96}, n)

	e.Unwatch(ch)
	_, ok := <-ch
	assert.False(t, ok)

	other := e.Watch(1)
	e.Dispose()
	_, ok = <-other
	assert.False(t, ok)
	assert.Equal(t, "Event(42)", emitter.Event(42).String())
}
