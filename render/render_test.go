package render_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/param"
	"github.com/dudk/cadence/render"
)

const sampleRate = 100

func automated(t *testing.T) (*param.Param, *render.Automation) {
	t.Helper()
	a, err := render.NewAutomation(0, nil)
	require.NoError(t, err)
	p, err := param.New(param.WithSink(a), param.WithValue(0))
	require.NoError(t, err)
	require.NoError(t, p.SetValueAtTime(0, 0))
	require.NoError(t, p.LinearRampToValueAtTime(1, 1))
	require.NoError(t, p.SetTargetAtTime(0.2, 1.5, 0.1))
	require.NoError(t, p.CancelAndHoldAtTime(1.8))
	return p, a
}

func TestAutomationFollowsParam(t *testing.T) {
	p, a := automated(t)
	assert.Equal(t, p.Len(), a.Len())

	buf, err := render.Render(sampleRate, 0, 2, p, a)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Format.NumChannels)
	require.Len(t, buf.Data, 2*2*sampleRate)
	for i := 0; i < len(buf.Data); i += 2 {
		assert.InDelta(t, buf.Data[i], buf.Data[i+1], 1e-9, "frame %d", i/2)
	}
	assert.InDelta(t, 0.5, buf.Data[2*50], 1e-9)
}

func TestRenderErrors(t *testing.T) {
	p, _ := automated(t)
	for _, test := range []struct {
		sampleRate      int
		start, duration float64
		signals         []render.Signal
	}{
		{sampleRate: 0, duration: 1, signals: []render.Signal{p}},
		{sampleRate: 10, start: -1, duration: 1, signals: []render.Signal{p}},
		{sampleRate: 10, duration: -1, signals: []render.Signal{p}},
		{sampleRate: 10, duration: 1},
	} {
		_, err := render.Render(test.sampleRate, test.start, test.duration, test.signals...)
		assert.ErrorIs(t, err, cadence.ErrInvalidArgument)
	}
}

func TestWriteWAV(t *testing.T) {
	p, a := automated(t)
	buf, err := render.Render(sampleRate, 0, 2, p, a)
	require.NoError(t, err)
	render.Normalize(buf)
	for _, v := range buf.Data {
		assert.True(t, v >= -1 && v <= 1)
	}
	assert.Equal(t, -1.0, buf.Data[0])

	path := filepath.Join(t.TempDir(), "automation.wav")
	assert.ErrorIs(t, render.WriteWAVFile(path, buf, 24), render.ErrUnsupportedBitDepth)
	require.NoError(t, render.WriteWAVFile(path, buf, 16))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	decoded, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Format.NumChannels)
	assert.Equal(t, sampleRate, decoded.Format.SampleRate)
	assert.Equal(t, uint16(16), d.BitDepth)
	require.Len(t, decoded.Data, len(buf.Data))
	assert.Equal(t, -32767, decoded.Data[0])
}
