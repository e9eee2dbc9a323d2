package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/config"
	"github.com/dudk/cadence/emitter"
	"github.com/dudk/cadence/midiclock"
	"github.com/dudk/cadence/sequence"
	"github.com/dudk/cadence/transport"
	"github.com/dudk/cadence/units"
)

// newTransport creates a transport configured by cfg.
func newTransport(ctx cadence.Context, cfg *config.Config, l logrus.FieldLogger) (*transport.Transport, error) {
	opts := append(cfg.TransportOptions(),
		transport.WithLogger(l),
		transport.WithErrorHandler(func(err error) {
			l.WithError(err).Warn("callbacks failed")
		}),
	)
	t, err := transport.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(t); err != nil {
		t.Dispose()
		return nil, err
	}
	return t, nil
}

// session plays a pattern or a metronome and optionally drives a MIDI
// clock.
type session struct {
	out       io.Writer
	log       logrus.FieldLogger
	t         *transport.Transport
	seq       *sequence.Sequence[string]
	metronome int
	clock     *midiclock.Clock
	closePort func() error
}

func newSession(ctx cadence.Context, cfg *config.Config, steps []sequence.Step[string], subdivision string, out io.Writer, l logrus.FieldLogger) (*session, error) {
	t, err := newTransport(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	s := &session{
		out:       out,
		log:       l,
		t:         t,
		metronome: -1,
	}
	if err := s.init(cfg, steps, subdivision); err != nil {
		s.dispose()
		return nil, err
	}
	return s, nil
}

func (s *session) init(cfg *config.Config, steps []sequence.Step[string], subdivision string) error {
	s.t.On(emitter.Start, s.notify)
	s.t.On(emitter.Stop, s.notify)
	s.t.On(emitter.Loop, s.notify)

	var err error
	if len(steps) > 0 {
		s.seq, err = sequence.New(s.t, s.print, steps,
			sequence.WithSubdivision(units.Expr(subdivision)),
			sequence.WithLogger(s.log),
		)
		if err != nil {
			return err
		}
		if err = s.seq.Start(units.Ticks(0)); err != nil {
			return err
		}
	} else {
		s.metronome, err = s.t.ScheduleRepeat(s.beat, units.Expr("4n"), units.Ticks(0), units.Forever)
		if err != nil {
			return err
		}
	}

	if cfg.MIDIPort == "" {
		return nil
	}
	send, closePort, err := midiclock.Open(cfg.MIDIPort)
	if err != nil {
		return err
	}
	s.closePort = closePort
	s.clock, err = midiclock.New(s.t, send, s.log)
	return err
}

func (s *session) position(time float64) string {
	return s.t.Converter().TicksToBarsBeatsSixteenths(float64(s.t.GetTicksAtTime(time)))
}

func (s *session) print(time float64, v string) error {
	_, err := fmt.Fprintf(s.out, "%s\t%s\n", s.position(time), v)
	return err
}

func (s *session) beat(time float64) error {
	v := "tick"
	if s.t.GetTicksAtTime(time)%int(s.t.Converter().MeasureTicks()) == 0 {
		v = "TICK"
	}
	return s.print(time, v)
}

func (s *session) notify(n emitter.Notification) {
	s.log.WithFields(logrus.Fields{
		"event": n.Event,
		"time":  n.Time,
		"ticks": n.Ticks,
	}).Info("transport")
}

func (s *session) start() error {
	return s.t.Start(units.Now)
}

func (s *session) stop() error {
	return s.t.Stop(units.Now)
}

func (s *session) dispose() {
	if s.seq != nil {
		s.seq.Dispose()
	}
	if s.clock != nil {
		s.clock.Dispose()
	}
	s.t.Dispose()
	if s.closePort != nil {
		if err := s.closePort(); err != nil {
			s.log.WithError(err).Warn("failed to close MIDI port")
		}
	}
}
