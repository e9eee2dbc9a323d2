package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/config"
	"github.com/dudk/cadence/internal/mock"
	"github.com/dudk/cadence/transport"
)

func TestLoadMissing(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence", "config.json")
	cfg := config.Default()
	cfg.BPM = 90
	cfg.Meter = config.Meter{Num: 3, Den: 4}
	cfg.Loop = config.LoopConfig{Enabled: true, Start: "0", End: "2m"}
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bpm": 100, "swing": 0.5}`), 0644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.BPM)
	assert.Equal(t, 0.5, cfg.Swing)
	assert.Equal(t, 192, cfg.PPQ)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		data string
		err  error
	}{
		{data: `{"bpm": 0}`, err: cadence.ErrInvalidArgument},
		{data: `{"swing": 2}`, err: cadence.ErrRange},
		{data: `{"meter": {"num": 0, "den": 4}}`, err: cadence.ErrInvalidArgument},
		{data: `{"audio": {"sampleRate": 44100, "bufferSize": 0}}`, err: cadence.ErrInvalidArgument},
	}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(test.data), 0644))
		_, err := config.Load(path)
		assert.ErrorIs(t, err, test.err, test.data)
	}

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	cfg := config.Default()
	cfg.BPM = 60
	cfg.Meter = config.Meter{Num: 3, Den: 4}
	cfg.Swing = 0.25
	cfg.SwingSubdivision = "16n"
	cfg.Loop = config.LoopConfig{Enabled: true, Start: "1m", End: "2m"}

	tr, err := transport.New(&mock.Context{}, cfg.TransportOptions()...)
	require.NoError(t, err)
	require.NoError(t, cfg.Apply(tr))
	assert.Equal(t, 60.0, tr.BPM().Value())
	assert.Equal(t, 3.0, tr.TimeSignature())
	assert.Equal(t, 0.25, tr.Swing())
	assert.Equal(t, "16n", tr.SwingSubdivision())
	assert.True(t, tr.Loop())
	assert.Equal(t, 576.0, tr.LoopStartTicks())
	assert.Equal(t, 1152.0, tr.LoopEndTicks())

	cfg.Loop.End = "bogus"
	assert.ErrorIs(t, cfg.Apply(tr), cadence.ErrInvalidArgument)
}
