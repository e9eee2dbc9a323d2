// Package config stores session settings as JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/transport"
	"github.com/dudk/cadence/units"
)

// Meter is a time signature.
type Meter struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// LoopConfig defines the transport loop.
type LoopConfig struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// AudioConfig defines the audio clock.
type AudioConfig struct {
	SampleRate float64 `json:"sampleRate"`
	BufferSize int     `json:"bufferSize"`
	LookAhead  float64 `json:"lookAhead"`
}

// Config is the session configuration.
type Config struct {
	BPM              float64     `json:"bpm"`
	PPQ              int         `json:"ppq"`
	Meter            Meter       `json:"meter"`
	Swing            float64     `json:"swing,omitempty"`
	SwingSubdivision string      `json:"swingSubdivision,omitempty"`
	Loop             LoopConfig  `json:"loop"`
	Audio            AudioConfig `json:"audio"`
	MIDIPort         string      `json:"midiPort,omitempty"`
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		BPM:              units.DefaultBPM,
		PPQ:              units.DefaultPPQ,
		Meter:            Meter{Num: 4, Den: 4},
		SwingSubdivision: "8n",
		Audio: AudioConfig{
			SampleRate: 44100,
			BufferSize: 512,
			LookAhead:  0.1,
		},
	}
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cadence"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path. Missing file results in defaults, missing
// fields keep default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path and creates its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values which can be checked without a transport.
func (c *Config) Validate() error {
	switch {
	case !(c.BPM > 0):
		return cadence.InvalidArgument("config", "bpm", c.BPM)
	case c.PPQ <= 0:
		return cadence.InvalidArgument("config", "ppq", c.PPQ)
	case c.Meter.Num <= 0 || c.Meter.Den <= 0:
		return cadence.InvalidArgument("config", "meter", c.Meter)
	case c.Swing < 0 || c.Swing > 1:
		return cadence.OutOfRange("config", "swing", c.Swing)
	case !(c.Audio.SampleRate > 0):
		return cadence.InvalidArgument("config", "sample rate", c.Audio.SampleRate)
	case c.Audio.BufferSize <= 0:
		return cadence.InvalidArgument("config", "buffer size", c.Audio.BufferSize)
	case c.Audio.LookAhead < 0:
		return cadence.InvalidArgument("config", "look ahead", c.Audio.LookAhead)
	}
	return nil
}

// TransportOptions returns options to create a transport.
func (c *Config) TransportOptions() []transport.Option {
	return []transport.Option{
		transport.WithBPM(c.BPM),
		transport.WithPPQ(c.PPQ),
		transport.WithTimeSignature(c.Meter.Num, c.Meter.Den),
		transport.WithSwing(c.Swing),
	}
}

// Apply sets swing subdivision and loop of the transport.
func (c *Config) Apply(t *transport.Transport) error {
	if c.SwingSubdivision != "" {
		if err := t.SetSwingSubdivision(units.Expr(c.SwingSubdivision)); err != nil {
			return err
		}
	}
	var err error
	switch {
	case c.Loop.Start != "" && c.Loop.End != "":
		err = t.SetLoopPoints(units.Expr(c.Loop.Start), units.Expr(c.Loop.End))
	case c.Loop.Start != "":
		err = t.SetLoopStart(units.Expr(c.Loop.Start))
	case c.Loop.End != "":
		err = t.SetLoopEnd(units.Expr(c.Loop.End))
	}
	if err != nil {
		return err
	}
	t.SetLoop(c.Loop.Enabled)
	return nil
}
