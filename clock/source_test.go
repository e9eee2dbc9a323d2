package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence/clock"
	"github.com/dudk/cadence/internal/mock"
	"github.com/dudk/cadence/param"
)

func newTickSource(t *testing.T, hz float64) *clock.TickSource {
	t.Helper()
	ctx := &mock.Context{}
	tp, err := param.NewTickParam(1, param.WithContext(ctx), param.WithValue(hz))
	require.NoError(t, err)
	return clock.NewTickSource(ctx, tp)
}

func TestTickSourcePositions(t *testing.T) {
	ts := newTickSource(t, 2)
	assert.Equal(t, clock.Stopped, ts.GetStateAtTime(0))
	assert.InDelta(t, 0, ts.GetTicksAtTime(10), 1e-9)

	ts.Start(1, 0)
	ts.Pause(3)
	ts.Start(4, -1)
	ts.Stop(6)

	tests := []struct {
		time    float64
		ticks   float64
		seconds float64
		state   clock.State
	}{
		{0.5, 0, 0, clock.Stopped},
		{1, 0, 0, clock.Started},
		{2, 2, 1, clock.Started},
		{3, 4, 2, clock.Paused},
		{3.5, 4, 2, clock.Paused},
		{5, 6, 3, clock.Started},
		{6, 0, 0, clock.Stopped},
		{7, 0, 0, clock.Stopped},
	}
	for _, test := range tests {
		assert.InDelta(t, test.ticks, ts.GetTicksAtTime(test.time), 1e-9, "time: %v", test.time)
		assert.InDelta(t, test.seconds, ts.GetSecondsAtTime(test.time), 1e-9, "time: %v", test.time)
		assert.Equal(t, test.state, ts.GetStateAtTime(test.time), "time: %v", test.time)
	}
}

func TestTickSourceOffset(t *testing.T) {
	ts := newTickSource(t, 2)
	ts.Start(0, 10)
	assert.InDelta(t, 12, ts.GetTicksAtTime(1), 1e-9)
	assert.InDelta(t, 6, ts.GetSecondsAtTime(1), 1e-9)
	assert.InDelta(t, 1, ts.GetTimeOfTick(12, 0.5), 1e-9)

	ts.SetTicksAtTime(0, 2)
	assert.InDelta(t, 2, ts.GetTicksAtTime(3), 1e-9)
}

func TestForEachTickBetween(t *testing.T) {
	ts := newTickSource(t, 4)
	ts.Start(0, 0)
	ts.Pause(1)
	ts.Start(2, -1)

	var ticks []int
	var times []float64
	ts.ForEachTickBetween(0, 3, func(tm float64, tick int) {
		times = append(times, tm)
		ticks = append(ticks, tick)
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, ticks)
	assert.InDelta(t, 0.75, times[3], 1e-9)
	assert.InDelta(t, 2, times[4], 1e-9)
	assert.InDelta(t, 2.75, times[7], 1e-9)

	ts.Cancel(2)
	ticks = nil
	ts.ForEachTickBetween(0, 3, func(_ float64, tick int) {
		ticks = append(ticks, tick)
	})
	assert.Equal(t, []int{0, 1, 2, 3}, ticks)

	ts.Dispose()
	ticks = nil
	ts.ForEachTickBetween(0, 3, func(_ float64, tick int) {
		ticks = append(ticks, tick)
	})
	assert.Empty(t, ticks)
}
