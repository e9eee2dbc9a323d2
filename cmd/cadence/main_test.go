package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/cadence/internal/mock"
	"github.com/dudk/cadence/sequence"
	"github.com/dudk/cadence/transport"
)

func TestInit(t *testing.T) {
	// check if commands are registered
	assert.Equal(t, 3, len(commands(io.Discard)))
}

func run(args ...string) (int, string) {
	var out bytes.Buffer
	a := app{
		args: append([]string{"cadence"}, args...),
		out:  &out,
	}
	code := a.run()
	return code, out.String()
}

func TestUsage(t *testing.T) {
	code, out := run()
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, out, "Usage: cadence <command>")
	for _, cmd := range commands(io.Discard) {
		assert.Contains(t, out, cmd.Name())
	}

	code, out = run("bogus")
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, out, "Unknown command: bogus")

	code, _ = run("play", "-nosuchflag")
	assert.Equal(t, errorExitCode, code)
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		pattern string
		events  []sequence.Event[string]
		err     bool
	}{
		{
			pattern: "c e - g",
			events: []sequence.Event[string]{
				{Ticks: 0, Value: "c"},
				{Ticks: 96, Value: "e"},
				{Ticks: 288, Value: "g"},
			},
		},
		{
			pattern: "c [e e]",
			events: []sequence.Event[string]{
				{Ticks: 0, Value: "c"},
				{Ticks: 96, Value: "e"},
				{Ticks: 144, Value: "e"},
			},
		},
		{
			pattern: "[c [d d]] -",
			events: []sequence.Event[string]{
				{Ticks: 0, Value: "c"},
				{Ticks: 48, Value: "d"},
				{Ticks: 72, Value: "d"},
			},
		},
		{pattern: "", err: true},
		{pattern: "c [e", err: true},
		{pattern: "c ] e", err: true},
	}
	for _, test := range tests {
		steps, err := parsePattern(test.pattern)
		if test.err {
			assert.Error(t, err, test.pattern)
			continue
		}
		require.NoError(t, err, test.pattern)
		events := patternEvents(t, steps)
		assert.Equal(t, test.events, events, test.pattern)
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "click.wav")
	code, out := run("render",
		"-config", filepath.Join(dir, "config.json"),
		"-out", path,
		"-duration", "1m",
		"-ramp", "180",
		"-v",
	)
	require.Equal(t, successExitCode, code, out)
	assert.Contains(t, out, "Rendered 2 seconds")
	assert.Contains(t, out, "Metrics:")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 44100, buf.Format.SampleRate)
	assert.Equal(t, 2*88200, len(buf.Data))
	// click on the first frame
	assert.Equal(t, 32767, buf.Data[0])
	// tempo ramps up from the minimum
	assert.Equal(t, -32767, buf.Data[1])
	assert.Equal(t, 32767, buf.Data[len(buf.Data)-1])
}

func TestRenderPattern(t *testing.T) {
	dir := t.TempDir()
	code, out := run("render",
		"-config", filepath.Join(dir, "config.json"),
		"-out", filepath.Join(dir, "pattern.wav"),
		"-duration", "1m",
		"-pattern", "c - c c",
		"-subdivision", "4n",
	)
	require.Equal(t, successExitCode, code, out)
	assert.Contains(t, out, "Rendered 2 seconds")
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "config.json")

	code, out := run("render", "-config", config)
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, out, "Missing -out required flag")

	code, _ = run("render", "-config", config, "-out", filepath.Join(dir, "a.wav"), "-bits", "24")
	assert.Equal(t, errorExitCode, code)

	code, _ = run("render", "-config", config, "-out", filepath.Join(dir, "a.wav"), "-pattern", "[")
	assert.Equal(t, errorExitCode, code)

	code, _ = run("render", "-config", config, "-out", filepath.Join(dir, "a.wav"), "-bpm", "-1")
	assert.Equal(t, errorExitCode, code)
}

func TestPlay(t *testing.T) {
	dir := t.TempDir()
	code, out := run("play",
		"-config", filepath.Join(dir, "config.json"),
		"-duration", "300ms",
		"-bpm", "240",
	)
	require.Equal(t, successExitCode, code, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "0:0:0\tTICK")
	assert.Contains(t, out, "event=start")
}

func TestPlayPattern(t *testing.T) {
	dir := t.TempDir()
	code, out := run("play",
		"-config", filepath.Join(dir, "config.json"),
		"-duration", "300ms",
		"-pattern", "c [e e]",
	)
	require.Equal(t, successExitCode, code, out)
	assert.Contains(t, out, "0:0:0\tc")
}

func TestPlayErrors(t *testing.T) {
	config := filepath.Join(t.TempDir(), "config.json")
	code, _ := run("play", "-config", config, "-pattern", "]")
	assert.Equal(t, errorExitCode, code)

	if openPortAudio == nil {
		code, out := run("play", "-config", config, "-portaudio")
		assert.Equal(t, errorExitCode, code)
		assert.Contains(t, out, errNoPortAudio.Error())
	}
}

func TestPorts(t *testing.T) {
	code, out := run("ports")
	assert.Equal(t, successExitCode, code)
	assert.Contains(t, out, "MIDI output ports")
}

func patternEvents(t *testing.T, steps []sequence.Step[string]) []sequence.Event[string] {
	t.Helper()
	tr, err := transport.New(&mock.Context{})
	require.NoError(t, err)
	defer tr.Dispose()
	seq, err := sequence.New(tr, func(float64, string) error { return nil }, steps)
	require.NoError(t, err)
	return seq.Events()
}
