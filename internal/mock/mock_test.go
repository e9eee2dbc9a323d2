package mock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/internal/mock"
)

var errTest = errors.New("test error")

var (
	_ cadence.Sink    = (*mock.Sink)(nil)
	_ cadence.Context = (*mock.Context)(nil)
)

func TestSink(t *testing.T) {
	var s mock.Sink
	s.SetValueAtTime(1, 0)
	s.SetTargetAtTime(2, 1, 0.5)
	s.CancelScheduledValues(3)

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []mock.Call{
		{Method: "setValueAtTime", Value: 1, Time: 0},
		{Method: "setTargetAtTime", Value: 2, Time: 1, Constant: 0.5},
		{Method: "cancelScheduledValues", Time: 3},
	}, s.Calls())
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, "cancelScheduledValues", last.Method)
}

func TestContext(t *testing.T) {
	ctx := mock.Context{Ahead: 0.1}
	ticks := 0
	cancel := ctx.OnTick(func() { ticks++ })
	ctx.Advance(0.01, 10)
	assert.Equal(t, 10, ticks)
	assert.InDelta(t, 0.1, ctx.CurrentTime(), 1e-9)
	assert.InDelta(t, 0.2, cadence.Now(&ctx), 1e-9)

	cancel()
	ctx.Advance(0.01, 10)
	assert.Equal(t, 10, ticks)
	assert.Equal(t, 0, ctx.Listeners())
	assert.Equal(t, 44100.0, ctx.SampleRate())
}

func TestCallback(t *testing.T) {
	cb := &mock.Callback{ErrorOnCall: errTest}
	fn := cb.Fn()
	assert.Equal(t, errTest, fn(1))
	assert.Equal(t, errTest, fn(2))
	assert.Equal(t, []float64{1, 2}, cb.Times())
	assert.Equal(t, 2, cb.Count())

	cb.Reset()
	assert.Empty(t, cb.Times())
	assert.Equal(t, 0, cb.Count())

	panicking := &mock.Callback{PanicOnCall: "boom"}
	assert.Panics(t, func() { _ = panicking.Fn()(0) })
}
