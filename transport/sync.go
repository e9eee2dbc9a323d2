package transport

import (
	"github.com/dudk/cadence"
	"github.com/dudk/cadence/param"
)

// SyncSignal makes the signal follow the tempo. The signal value becomes
// ratio times ticks per second, or its reciprocal for param.Time signals.
// Zero ratio keeps the current value of the signal at the current tempo.
func (t *Transport) SyncSignal(p *param.Param, ratio float64) error {
	if p == nil {
		return cadence.InvalidArgument("SyncSignal", "signal", nil)
	}
	if !(ratio >= 0) {
		return cadence.InvalidArgument("SyncSignal", "ratio", ratio)
	}
	for _, s := range t.synced {
		if s.signal == p {
			return cadence.InvalidArgument("SyncSignal", "signal", p.UID())
		}
	}
	source := func(time float64) float64 {
		return t.bpm.GetValueAtTime(time) * t.bpm.Multiplier() / 60
	}
	if p.Units() == param.Time {
		ticksPerSecond := source
		source = func(time float64) float64 {
			return 1 / ticksPerSecond(time)
		}
	}
	now := t.now()
	current := p.GetValueAtTime(now)
	if ratio == 0 && current != 0 {
		ratio = current / source(now)
	}
	id := p.Connect(func(time float64) float64 {
		return ratio * source(time)
	})
	if err := p.ZeroAtTime(now); err != nil {
		p.Disconnect(id)
		return err
	}
	t.synced = append(t.synced, synced{signal: p, input: id, initial: current})
	t.log.WithField("signal", p.UID()).WithField("ratio", ratio).Debug("sync signal")
	return nil
}

// UnsyncSignal detaches the signal from the tempo and restores the value
// it had when synced. Signals which are not synced are ignored.
func (t *Transport) UnsyncSignal(p *param.Param) {
	for i, s := range t.synced {
		if s.signal != p {
			continue
		}
		t.synced = append(t.synced[:i], t.synced[i+1:]...)
		p.Disconnect(s.input)
		if err := p.SetValue(s.initial); err != nil {
			t.log.WithError(err).Warn("restore synced signal")
		}
		t.log.WithField("signal", p.UID()).Debug("unsync signal")
		return
	}
}
