package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/audioctx"
	"github.com/dudk/cadence/config"
	"github.com/dudk/cadence/sequence"
)

// device is a running audio clock.
type device interface {
	cadence.Context
	Exec(func())
	Close() error
}

// openPortAudio is set when the binary is built with the portaudio tag.
var openPortAudio func(cfg *config.Config, l logrus.FieldLogger) (device, error)

var errNoPortAudio = errors.New("built without portaudio, rebuild with -tags portaudio")

type playCommand struct {
	common
	duration    time.Duration
	pattern     string
	subdivision string
	midiPort    string
	portaudio   bool
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play a metronome or a pattern until interrupted"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	cmd.common.register(fs)
	fs.DurationVar(&cmd.duration, "duration", 0, "stop after duration, 0 plays until interrupted")
	fs.StringVar(&cmd.pattern, "pattern", "", `steps to play, e.g. "c [e e] - g"; metronome if empty`)
	fs.StringVar(&cmd.subdivision, "subdivision", "8n", "duration of a pattern step")
	fs.StringVar(&cmd.midiPort, "midi", "", "MIDI output port to send clock to, overrides config")
	fs.BoolVar(&cmd.portaudio, "portaudio", false, "use the sound card clock")
}

func (cmd *playCommand) Run() error {
	cfg, err := cmd.config()
	if err != nil {
		return err
	}
	if cmd.midiPort != "" {
		cfg.MIDIPort = cmd.midiPort
	}
	steps, err := cmd.steps()
	if err != nil {
		return err
	}
	l := cmd.logger()
	dev, err := cmd.open(cfg, l)
	if err != nil {
		return err
	}
	defer dev.Close()

	var s *session
	dev.Exec(func() {
		if s, err = newSession(dev, cfg, steps, cmd.subdivision, cmd.out, l); err != nil {
			return
		}
		err = s.start()
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if cmd.duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, cmd.duration)
		defer stop()
	}
	<-ctx.Done()

	dev.Exec(func() {
		err = s.stop()
	})
	// let the clock reach the stop before listeners are released
	time.Sleep(time.Duration((dev.LookAhead() + 0.05) * float64(time.Second)))
	dev.Exec(s.dispose)
	cmd.dumpMetrics()
	return err
}

func (cmd *playCommand) steps() ([]sequence.Step[string], error) {
	if cmd.pattern == "" {
		return nil, nil
	}
	return parsePattern(cmd.pattern)
}

func (cmd *playCommand) open(cfg *config.Config, l logrus.FieldLogger) (device, error) {
	if cmd.portaudio {
		if openPortAudio == nil {
			return nil, errNoPortAudio
		}
		return openPortAudio(cfg, l)
	}
	return audioctx.NewRealtime(
		audioctx.WithSampleRate(cfg.Audio.SampleRate),
		audioctx.WithLookAhead(cfg.Audio.LookAhead),
		audioctx.WithLogger(l),
	)
}
