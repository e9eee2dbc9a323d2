package main

import (
	"flag"
	"fmt"

	"github.com/dudk/cadence/audioctx"
	"github.com/dudk/cadence/render"
	"github.com/dudk/cadence/sequence"
	"github.com/dudk/cadence/units"
)

// clickLength is the duration of a rendered click in seconds.
const clickLength = 0.01

type renderCommand struct {
	common
	file        string
	duration    string
	rampTo      float64
	bitDepth    int
	pattern     string
	subdivision string
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render clicks and the tempo curve to a wav file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.common.register(fs)
	fs.StringVar(&cmd.file, "out", "", "output wav file (required)")
	fs.StringVar(&cmd.duration, "duration", "4m", "rendered duration at the initial tempo")
	fs.Float64Var(&cmd.rampTo, "ramp", 0, "tempo to ramp to by the end, 0 keeps the tempo")
	fs.IntVar(&cmd.bitDepth, "bits", 16, "bit depth: 16 or 32")
	fs.StringVar(&cmd.pattern, "pattern", "", "steps to click, quarter notes if empty")
	fs.StringVar(&cmd.subdivision, "subdivision", "8n", "duration of a pattern step")
}

// Validate checks required flags.
func (cmd *renderCommand) Validate() error {
	var message string
	if cmd.file == "" {
		message += "Missing -out required flag\n"
	}
	if cmd.rampTo < 0 {
		message += fmt.Sprintf("Invalid -ramp value: %v\n", cmd.rampTo)
	}
	if message != "" {
		return fmt.Errorf("%s", message)
	}
	return nil
}

func (cmd *renderCommand) Run() error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	cfg, err := cmd.config()
	if err != nil {
		return err
	}
	l := cmd.logger()
	ctx, err := audioctx.NewOffline(cfg.Audio.SampleRate, audioctx.WithBlockSize(cfg.Audio.BufferSize))
	if err != nil {
		return err
	}
	t, err := newTransport(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer t.Dispose()

	duration, err := t.Converter().ToSeconds(units.Expr(cmd.duration))
	if err != nil {
		return err
	}
	if cmd.rampTo > 0 {
		if err := t.BPM().SetValueAtTime(cfg.BPM, 0); err != nil {
			return err
		}
		if err := t.BPM().LinearRampToValueAtTime(cmd.rampTo, duration); err != nil {
			return err
		}
	}

	click, err := render.NewAutomation(0, l)
	if err != nil {
		return err
	}
	clickAt := func(time float64) error {
		click.SetValueAtTime(1, time)
		click.SetValueAtTime(0, time+clickLength)
		return nil
	}
	if cmd.pattern != "" {
		steps, err := parsePattern(cmd.pattern)
		if err != nil {
			return err
		}
		seq, err := sequence.New(t, func(time float64, _ string) error {
			return clickAt(time)
		}, steps, sequence.WithSubdivision(units.Expr(cmd.subdivision)), sequence.WithLogger(l))
		if err != nil {
			return err
		}
		defer seq.Dispose()
		if err := seq.Start(units.Ticks(0)); err != nil {
			return err
		}
	} else if _, err := t.ScheduleRepeat(clickAt, units.Expr("4n"), units.Ticks(0), units.Forever); err != nil {
		return err
	}

	if err := t.Start(units.Seconds(0)); err != nil {
		return err
	}
	ctx.AdvanceTo(duration)

	buf, err := render.Render(int(cfg.Audio.SampleRate), 0, duration, click, t.BPM())
	if err != nil {
		return err
	}
	render.Normalize(buf)
	if err := render.WriteWAVFile(cmd.file, buf, cmd.bitDepth); err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "Rendered %v seconds, %d clicks, to %s\n", duration, click.Len()/2, cmd.file)
	cmd.dumpMetrics()
	return nil
}
