// Package midiclock sends MIDI beat clock that follows a transport.
//
// Timing clock is sent 24 times per quarter note. Transport start from
// zero sends Start, resume from another position sends Song Position
// Pointer and Continue. Stop and pause send Stop.
package midiclock

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/emitter"
	"github.com/dudk/cadence/log"
	"github.com/dudk/cadence/transport"
	"github.com/dudk/cadence/units"
)

// PulsesPerQuarter is the resolution of MIDI beat clock.
const PulsesPerQuarter = 24

// Sender sends a MIDI message.
type Sender func(midi.Message) error

// Clock sends MIDI beat clock for a transport.
type Clock struct {
	uid    string
	log    *logrus.Entry
	t      *transport.Transport
	send   Sender
	id     int
	off    []func()
	paused bool
	pulses int64
}

// New attaches a MIDI clock to the transport. Transport PPQ must be a
// multiple of 24.
func New(t *transport.Transport, send Sender, l logrus.FieldLogger) (*Clock, error) {
	if send == nil {
		return nil, cadence.InvalidArgument("midiclock.New", "sender", nil)
	}
	ppq := t.PPQ()
	if ppq%PulsesPerQuarter != 0 {
		return nil, cadence.InvalidArgument("midiclock.New", "ppq", ppq)
	}
	c := &Clock{
		uid:  cadence.NewUID(),
		t:    t,
		send: send,
	}
	c.log = log.Component(l, "midiclock", c.uid)
	id, err := t.ScheduleRepeat(c.pulse, units.Ticks(float64(ppq/PulsesPerQuarter)), units.Ticks(0), units.Forever)
	if err != nil {
		return nil, fmt.Errorf("midi clock pulse: %w", err)
	}
	c.id = id
	c.off = append(c.off,
		t.On(emitter.Start, c.start),
		t.On(emitter.Stop, c.stop),
		t.On(emitter.Pause, c.pause),
		t.On(emitter.LoopStart, c.loop),
	)
	return c, nil
}

// Pulses returns number of sent timing clock messages.
func (c *Clock) Pulses() int64 {
	return c.pulses
}

func (c *Clock) pulse(float64) error {
	c.pulses++
	return c.send(midi.TimingClock())
}

// songPosition returns position in sixteenth notes.
func (c *Clock) songPosition(ticks float64) uint16 {
	return uint16(ticks / float64(c.t.PPQ()/4))
}

func (c *Clock) deliver(msgs ...midi.Message) {
	for _, msg := range msgs {
		if err := c.send(msg); err != nil {
			c.log.WithError(err).WithField("message", msg.String()).Warn("send failed")
		}
	}
}

func (c *Clock) start(n emitter.Notification) {
	c.log.WithFields(logrus.Fields{"time": n.Time, "ticks": n.Ticks}).Debug("start")
	if n.Ticks == 0 && !c.paused {
		c.deliver(midi.Start())
	} else {
		c.deliver(midi.SPP(c.songPosition(n.Ticks)), midi.Continue())
	}
	c.paused = false
}

func (c *Clock) stop(n emitter.Notification) {
	c.log.WithField("time", n.Time).Debug("stop")
	c.paused = false
	c.deliver(midi.Stop())
}

func (c *Clock) pause(n emitter.Notification) {
	c.log.WithField("time", n.Time).Debug("pause")
	c.paused = true
	c.deliver(midi.Stop())
}

func (c *Clock) loop(n emitter.Notification) {
	c.deliver(midi.SPP(c.songPosition(n.Ticks)))
}

// Dispose detaches the clock from the transport.
func (c *Clock) Dispose() {
	c.t.Clear(c.id)
	for _, off := range c.off {
		off()
	}
	c.off = nil
}
