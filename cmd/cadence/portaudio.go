//go:build portaudio

package main

import (
	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence/config"
	"github.com/dudk/cadence/portaudio"
)

func init() {
	openPortAudio = func(cfg *config.Config, l logrus.FieldLogger) (device, error) {
		c, err := portaudio.New(cfg.Audio.SampleRate,
			portaudio.WithBufferSize(cfg.Audio.BufferSize),
			portaudio.WithLookAhead(cfg.Audio.LookAhead),
			portaudio.WithLogger(l),
		)
		if err != nil {
			return nil, err
		}
		if err := c.Start(); err != nil {
			return nil, err
		}
		return c, nil
	}
}
