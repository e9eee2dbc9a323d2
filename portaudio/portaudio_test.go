//go:build portaudio
// +build portaudio

package portaudio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence/portaudio"
	"github.com/dudk/cadence/transport"
	"github.com/dudk/cadence/units"
)

const sampleRate = 44100

func TestContext(t *testing.T) {
	ctx, err := portaudio.New(sampleRate, portaudio.WithBufferSize(256))
	require.NoError(t, err)
	require.NoError(t, ctx.Start())
	defer ctx.Close()

	fired := make(chan float64, 4)
	ctx.Exec(func() {
		tr, err := transport.New(ctx, transport.WithBPM(240))
		require.NoError(t, err)
		_, err = tr.ScheduleRepeat(func(time float64) error {
			fired <- time
			return nil
		}, units.Expr("4n"), units.Seconds(0), units.Expr("1m"))
		require.NoError(t, err)
		require.NoError(t, tr.Start(units.Now))
	})

	var times []float64
	for len(times) < 4 {
		select {
		case v := <-fired:
			times = append(times, v)
		case <-time.After(3 * time.Second):
			t.Fatalf("fired %d times", len(times))
		}
	}
	for i := 1; i < len(times); i++ {
		assert.InDelta(t, 0.25, times[i]-times[i-1], 1e-9)
	}
	assert.NoError(t, ctx.Close())
}
