package transport

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/units"
)

// Schedule calls fn once the transport reaches time. Relative times are
// relative to the transport position. Returns id of the event.
func (t *Transport) Schedule(fn Callback, at units.Time) (int, error) {
	if fn == nil {
		return 0, cadence.InvalidArgument("Schedule", "callback", nil)
	}
	ticks, err := t.eventTicks("Schedule", at)
	if err != nil {
		return 0, err
	}
	return t.scheduleTicks(fn, ticks, false), nil
}

// ScheduleOnce calls fn when the transport reaches time and removes the
// event after it fires.
func (t *Transport) ScheduleOnce(fn Callback, at units.Time) (int, error) {
	if fn == nil {
		return 0, cadence.InvalidArgument("ScheduleOnce", "callback", nil)
	}
	ticks, err := t.eventTicks("ScheduleOnce", at)
	if err != nil {
		return 0, err
	}
	return t.scheduleTicks(fn, ticks, true), nil
}

// ScheduleRepeat calls fn every interval starting at start for duration.
// Use units.Forever to repeat until the event is cleared.
func (t *Transport) ScheduleRepeat(fn Callback, interval, start, duration units.Time) (int, error) {
	if fn == nil {
		return 0, cadence.InvalidArgument("ScheduleRepeat", "callback", nil)
	}
	c := t.positionConverter()
	i, err := toTicks(c, "ScheduleRepeat", interval)
	if err != nil {
		return 0, err
	}
	if i <= 0 || math.IsInf(i, 0) {
		return 0, cadence.InvalidArgument("ScheduleRepeat", "interval", interval)
	}
	s, err := t.eventTicks("ScheduleRepeat", start)
	if err != nil {
		return 0, err
	}
	d, err := toTicks(c, "ScheduleRepeat", duration)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, cadence.InvalidArgument("ScheduleRepeat", "duration", duration)
	}

	t.lastID++
	r := newRepeatEvent(t, t.lastID, fn, s, i, d)
	if err := t.repeats.Add(r); err != nil {
		r.dispose()
		return 0, err
	}
	t.repeatEvents[r.id] = r
	t.log.WithFields(logrus.Fields{
		"id":       r.id,
		"ticks":    s,
		"interval": i,
		"duration": d,
	}).Debug("schedule repeat")
	r.restart(t.now())
	return r.id, nil
}

// eventTicks resolves time of an event against the transport position.
func (t *Transport) eventTicks(op string, at units.Time) (float64, error) {
	ticks, err := toTicks(t.positionConverter(), op, at)
	if err != nil {
		return 0, err
	}
	if math.IsInf(ticks, 0) {
		return 0, cadence.InvalidArgument(op, "time", at)
	}
	return ticks, nil
}

func (t *Transport) scheduleTicks(fn Callback, ticks float64, once bool) int {
	t.lastID++
	e := &event{id: t.lastID, ticks: ticks, fn: fn, once: once}
	t.timeline.Add(e)
	t.events[e.id] = e
	t.log.WithFields(logrus.Fields{"id": e.id, "ticks": ticks, "once": once}).Debug("schedule")
	return e.id
}

// Clear removes the event with id. Clearing a repeat removes its pending
// occurrences. Unknown ids are ignored.
func (t *Transport) Clear(id int) {
	if e, ok := t.events[id]; ok {
		t.timeline.Remove(e)
		delete(t.events, id)
		return
	}
	if r, ok := t.repeatEvents[id]; ok {
		delete(t.repeatEvents, id)
		t.repeats.Remove(r)
		r.dispose()
	}
}

// Cancel removes all events which start at or after the transport time.
// Repeats which start before keep playing.
func (t *Transport) Cancel(after units.Time) error {
	ticks, err := toTicks(t.positionConverter(), "Cancel", after)
	if err != nil {
		return err
	}
	t.log.WithField("ticks", ticks).Debug("cancel")
	t.timeline.ForEachFrom(ticks, func(e *event) {
		if e.owner == nil {
			t.Clear(e.id)
		}
	})
	t.repeats.ForEachFrom(ticks, func(r *repeatEvent) {
		t.Clear(r.id)
	})
	return nil
}
