// Package transport schedules musical events against a clock.
//
// Transport counts ticks at PPQ ticks per quarter note with the tempo
// curve BPM. Events are scheduled at musical times and dispatched on their
// tick with the exact audio clock time, optionally delayed by swing. The
// loop jumps back to the loop start before the events of the loop end tick
// are dispatched.
//
// Transport is not safe for concurrent use. All calls must come from the
// goroutine which drives its context, see audioctx.Realtime.Exec.
package transport

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/clock"
	"github.com/dudk/cadence/emitter"
	"github.com/dudk/cadence/log"
	"github.com/dudk/cadence/metric"
	"github.com/dudk/cadence/param"
	"github.com/dudk/cadence/timeline"
	"github.com/dudk/cadence/units"
)

// Transport is a musical clock and event scheduler.
type Transport struct {
	*emitter.Emitter
	uid   string
	log   *logrus.Entry
	ctx   cadence.Context
	clock *clock.Clock
	bpm   *param.TickParam
	meter *metric.Measure

	timeSignature float64
	swing         float64
	swingTicks    float64

	loop       bool
	loopStart  float64
	loopEnd    float64
	iterations int
	loops      int

	timeline     *timeline.Timeline[*event]
	repeats      *timeline.IntervalTimeline[*repeatEvent]
	events       map[int]*event
	repeatEvents map[int]*repeatEvent
	lastID       int
	// dispatching is the tick which events are dispatched for.
	dispatching float64

	synced  []synced
	handler func(error)
}

type synced struct {
	signal  *param.Param
	input   int
	initial float64
}

// Option configures a Transport.
type Option func(*options)

type options struct {
	ppq           int
	bpm           float64
	timeSignature float64
	swing         float64
	logger        logrus.FieldLogger
	handler       func(error)
}

// WithPPQ sets pulses per quarter note. Default is 192.
func WithPPQ(ppq int) Option {
	return func(o *options) {
		o.ppq = ppq
	}
}

// WithBPM sets initial tempo. Default is 120.
func WithBPM(bpm float64) Option {
	return func(o *options) {
		o.bpm = bpm
	}
}

// WithTimeSignature sets the meter as num/den. Default is 4/4.
func WithTimeSignature(num, den int) Option {
	return func(o *options) {
		o.timeSignature = units.Meter(num, den)
	}
}

// WithSwing sets swing amount in [0, 1].
func WithSwing(amount float64) Option {
	return func(o *options) {
		o.swing = amount
	}
}

// WithLogger sets logger. If this option is not provided, silent logger is
// used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithErrorHandler sets a handler of failed callbacks. It's called once
// per tick with cadence.CallbackErrors of that tick.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.handler = fn
	}
}

// defaultLoopMeasures is the loop length of a new transport.
const defaultLoopMeasures = 4

// New creates a stopped transport driven by the context. The loop spans
// the first four measures until loop points are set.
func New(ctx cadence.Context, opts ...Option) (*Transport, error) {
	o := options{
		ppq:           units.DefaultPPQ,
		bpm:           units.DefaultBPM,
		timeSignature: units.DefaultTimeSignature,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ppq <= 0 {
		return nil, cadence.InvalidArgument("transport.New", "ppq", o.ppq)
	}
	if !(o.timeSignature > 0) || math.IsInf(o.timeSignature, 0) {
		return nil, cadence.InvalidArgument("transport.New", "time signature", o.timeSignature)
	}
	if !(o.swing >= 0 && o.swing <= 1) {
		return nil, cadence.OutOfRange("transport.New", "swing", o.swing)
	}
	t := &Transport{
		Emitter:       emitter.New(),
		uid:           cadence.NewUID(),
		ctx:           ctx,
		timeSignature: o.timeSignature,
		swing:         o.swing,
		swingTicks:    float64(o.ppq) / 2,
		timeline:      timeline.New[*event](),
		repeats:       timeline.NewIntervalTimeline[*repeatEvent](),
		events:        make(map[int]*event),
		repeatEvents:  make(map[int]*repeatEvent),
		handler:       o.handler,
	}
	t.log = log.Component(o.logger, "transport", t.uid)
	bpm, err := param.NewTickParam(float64(o.ppq),
		param.WithUnits(param.BPM),
		param.WithValue(o.bpm),
		param.WithContext(ctx),
		param.WithLogger(o.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("transport bpm: %w", err)
	}
	t.bpm = bpm
	t.loopEnd = defaultLoopMeasures * float64(o.ppq) * o.timeSignature
	t.clock, err = clock.New(ctx, t.processTick, clock.WithFrequency(bpm), clock.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("transport clock: %w", err)
	}
	t.meter = metric.Meter(t)
	t.bindClock()
	return t, nil
}

// bindClock forwards clock notifications.
func (t *Transport) bindClock() {
	t.clock.On(emitter.Start, func(n emitter.Notification) {
		t.log.WithFields(logrus.Fields{"time": n.Time, "ticks": n.Ticks}).Debug("started")
		t.loops = 0
		t.meter.Reset()
		t.Emit(n)
	})
	t.clock.On(emitter.Stop, func(n emitter.Notification) {
		t.log.WithField("time", n.Time).Debug("stopped")
		t.Emit(n)
	})
	t.clock.On(emitter.Pause, func(n emitter.Notification) {
		t.log.WithField("time", n.Time).Debug("paused")
		t.Emit(n)
	})
}

// UID returns unique id of the transport.
func (t *Transport) UID() string {
	return t.uid
}

func (t *Transport) now() float64 {
	return cadence.Now(t.ctx)
}

// Converter returns a converter of the current tempo and meter. Relative
// values are relative to the audio clock time.
func (t *Transport) Converter() units.Converter {
	return units.Converter{
		PPQ:           t.PPQ(),
		TimeSignature: t.timeSignature,
		BPM:           func() float64 { return t.bpm.GetValueAtTime(t.now()) },
		Now:           t.now,
		SampleRate:    t.ctx.SampleRate(),
	}
}

// positionConverter is Converter with values relative to the transport
// position.
func (t *Transport) positionConverter() units.Converter {
	c := t.Converter()
	c.Now = func() float64 {
		return c.TicksToSeconds(float64(t.GetTicksAtTime(t.now())))
	}
	return c
}

// ToTicks converts a time value to ticks. Relative values are relative to
// the transport position.
func (t *Transport) ToTicks(v units.Time) (float64, error) {
	return toTicks(t.positionConverter(), "ToTicks", v)
}

func (t *Transport) toSeconds(op string, v units.Time) (float64, error) {
	s, err := t.Converter().ToSeconds(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return 0, cadence.InvalidArgument(op, "time", v)
	}
	return s, nil
}

func toTicks(c units.Converter, op string, v units.Time) (float64, error) {
	ticks, err := c.ToTicks(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if math.IsNaN(ticks) || ticks < 0 {
		return 0, cadence.InvalidArgument(op, "time", v)
	}
	return ticks, nil
}

// BPM returns the tempo curve.
func (t *Transport) BPM() *param.TickParam {
	return t.bpm
}

// PPQ returns pulses per quarter note.
func (t *Transport) PPQ() int {
	return int(t.bpm.Multiplier())
}

// SetPPQ changes pulses per quarter note, keeping the tempo.
func (t *Transport) SetPPQ(ppq int) error {
	if ppq <= 0 {
		return cadence.InvalidArgument("SetPPQ", "ppq", ppq)
	}
	return t.bpm.SetMultiplier(float64(ppq))
}

// TimeSignature returns the number of quarter notes in a measure.
func (t *Transport) TimeSignature() float64 {
	return t.timeSignature
}

// SetTimeSignature sets the meter as num/den.
func (t *Transport) SetTimeSignature(num, den int) error {
	if num <= 0 || den <= 0 {
		return cadence.InvalidArgument("SetTimeSignature", "meter", fmt.Sprintf("%d/%d", num, den))
	}
	t.timeSignature = units.Meter(num, den)
	return nil
}

// Swing returns the swing amount.
func (t *Transport) Swing() float64 {
	return t.swing
}

// SetSwing sets the swing amount in [0, 1].
func (t *Transport) SetSwing(amount float64) error {
	if !(amount >= 0 && amount <= 1) {
		return cadence.OutOfRange("SetSwing", "swing", amount)
	}
	t.swing = amount
	return nil
}

// SwingSubdivision returns the swung subdivision as notation.
func (t *Transport) SwingSubdivision() string {
	return t.Converter().ToNotation(t.swingTicks)
}

// SetSwingSubdivision sets the swung subdivision, e.g. "8n" or "16n".
func (t *Transport) SetSwingSubdivision(v units.Time) error {
	ticks, err := toTicks(t.Converter(), "SetSwingSubdivision", v)
	if err != nil {
		return err
	}
	if ticks <= 0 || math.IsInf(ticks, 0) {
		return cadence.InvalidArgument("SetSwingSubdivision", "subdivision", v)
	}
	t.swingTicks = ticks
	return nil
}

// Loop reports if looping is enabled.
func (t *Transport) Loop() bool {
	return t.loop
}

// SetLoop enables or disables looping.
func (t *Transport) SetLoop(loop bool) {
	t.loop = loop
}

// SetLoopIterations limits the number of loop jumps after every start.
// Zero means loop forever.
func (t *Transport) SetLoopIterations(n int) error {
	if n < 0 {
		return cadence.InvalidArgument("SetLoopIterations", "iterations", n)
	}
	t.iterations = n
	return nil
}

// LoopStart returns the loop start in seconds.
func (t *Transport) LoopStart() float64 {
	return t.Converter().TicksToSeconds(t.loopStart)
}

// LoopEnd returns the loop end in seconds.
func (t *Transport) LoopEnd() float64 {
	return t.Converter().TicksToSeconds(t.loopEnd)
}

// LoopStartTicks returns the loop start in ticks.
func (t *Transport) LoopStartTicks() float64 {
	return t.loopStart
}

// LoopEndTicks returns the loop end in ticks.
func (t *Transport) LoopEndTicks() float64 {
	return t.loopEnd
}

// SetLoopStart sets the loop start position. It must be before the loop
// end.
func (t *Transport) SetLoopStart(v units.Time) error {
	ticks, err := toTicks(t.Converter(), "SetLoopStart", v)
	if err != nil {
		return err
	}
	if math.IsInf(ticks, 0) || ticks >= t.loopEnd {
		return cadence.InvalidArgument("SetLoopStart", "time", v)
	}
	t.loopStart = ticks
	return nil
}

// SetLoopEnd sets the loop end position. It must be after the loop start.
func (t *Transport) SetLoopEnd(v units.Time) error {
	ticks, err := toTicks(t.Converter(), "SetLoopEnd", v)
	if err != nil {
		return err
	}
	if math.IsInf(ticks, 0) || ticks <= t.loopStart {
		return cadence.InvalidArgument("SetLoopEnd", "time", v)
	}
	t.loopEnd = ticks
	return nil
}

// SetLoopPoints sets the loop start and end. End must be after start.
func (t *Transport) SetLoopPoints(start, end units.Time) error {
	c := t.Converter()
	s, err := toTicks(c, "SetLoopPoints", start)
	if err != nil {
		return err
	}
	e, err := toTicks(c, "SetLoopPoints", end)
	if err != nil {
		return err
	}
	if !(e > s) || math.IsInf(e, 0) {
		return cadence.InvalidArgument("SetLoopPoints", "end", end)
	}
	t.loopStart, t.loopEnd = s, e
	return nil
}

// State returns the state at the current time.
func (t *Transport) State() clock.State {
	return t.clock.GetStateAtTime(t.now())
}

// GetStateAtTime returns the state at time.
func (t *Transport) GetStateAtTime(time float64) clock.State {
	return t.clock.GetStateAtTime(time)
}

// Start starts the transport at time from the current position.
func (t *Transport) Start(at units.Time) error {
	s, err := t.toSeconds("Start", at)
	if err != nil {
		return err
	}
	return t.clock.Start(s, -1)
}

// StartFrom starts the transport at time from the offset position.
func (t *Transport) StartFrom(at, offset units.Time) error {
	s, err := t.toSeconds("StartFrom", at)
	if err != nil {
		return err
	}
	ticks, err := toTicks(t.Converter(), "StartFrom", offset)
	if err != nil {
		return err
	}
	return t.clock.Start(s, ticks)
}

// Stop stops the transport at time and rewinds it to zero.
func (t *Transport) Stop(at units.Time) error {
	s, err := t.toSeconds("Stop", at)
	if err != nil {
		return err
	}
	return t.clock.Stop(s)
}

// Pause pauses the transport at time.
func (t *Transport) Pause(at units.Time) error {
	s, err := t.toSeconds("Pause", at)
	if err != nil {
		return err
	}
	return t.clock.Pause(s)
}

// Toggle starts a transport which is not started at time, stops otherwise.
func (t *Transport) Toggle(at units.Time) error {
	s, err := t.toSeconds("Toggle", at)
	if err != nil {
		return err
	}
	if t.clock.GetStateAtTime(s) != clock.Started {
		return t.clock.Start(s, -1)
	}
	return t.clock.Stop(s)
}

// Ticks returns the position in ticks at the current time.
func (t *Transport) Ticks() int {
	return t.clock.Ticks()
}

// SetTicks moves the position. A started transport moves on the next tick
// boundary and emits Stop and Start at that time.
func (t *Transport) SetTicks(ticks int) {
	if t.clock.Ticks() == ticks {
		return
	}
	now := t.now()
	if t.State() != clock.Started {
		t.clock.SetTicksAtTime(float64(ticks), now)
		return
	}
	current := t.clock.GetTicksAtTime(now)
	at := now + t.bpm.GetDurationOfTicks(math.Ceil(current)-current, now)
	t.Emit(emitter.Notification{Event: emitter.Stop, Time: at})
	t.clock.SetTicksAtTime(float64(ticks), at)
	t.Emit(emitter.Notification{Event: emitter.Start, Time: at, Ticks: float64(ticks)})
}

// Seconds returns the position in seconds.
func (t *Transport) Seconds() float64 {
	return t.clock.Seconds()
}

// SetSeconds moves the position to seconds.
func (t *Transport) SetSeconds(s float64) {
	t.SetTicks(int(math.Round(t.bpm.TimeToTicks(s, t.now()))))
}

// Position returns the position as bars:beats:sixteenths.
func (t *Transport) Position() string {
	return t.Converter().TicksToBarsBeatsSixteenths(t.clock.GetTicksAtTime(t.now()))
}

// SetPosition moves the position, e.g. to "1:0:0".
func (t *Transport) SetPosition(v units.Time) error {
	ticks, err := toTicks(t.Converter(), "SetPosition", v)
	if err != nil {
		return err
	}
	if math.IsInf(ticks, 0) {
		return cadence.InvalidArgument("SetPosition", "time", v)
	}
	t.SetTicks(int(ticks))
	return nil
}

// Progress returns the position within the loop in [0, 1]. Zero when not
// looping.
func (t *Transport) Progress() float64 {
	if !t.loop || t.loopEnd <= t.loopStart {
		return 0
	}
	ticks := t.clock.GetTicksAtTime(t.now())
	return (ticks - t.loopStart) / (t.loopEnd - t.loopStart)
}

// GetTicksAtTime returns the position in whole ticks at time.
func (t *Transport) GetTicksAtTime(time float64) int {
	return int(math.Round(t.clock.GetTicksAtTime(time)))
}

// GetSecondsAtTime returns the position in seconds at time.
func (t *Transport) GetSecondsAtTime(time float64) float64 {
	return t.clock.GetSecondsAtTime(time)
}

// NextSubdivision returns the audio clock time of the next subdivision
// boundary. Returns zero if the transport is not started.
func (t *Transport) NextSubdivision(subdivision units.Time) (float64, error) {
	sub, err := toTicks(t.Converter(), "NextSubdivision", subdivision)
	if err != nil {
		return 0, err
	}
	if sub <= 0 || math.IsInf(sub, 0) {
		return 0, cadence.InvalidArgument("NextSubdivision", "subdivision", subdivision)
	}
	if t.State() != clock.Started {
		return 0, nil
	}
	now := t.now()
	position := float64(t.GetTicksAtTime(now))
	remaining := sub - math.Mod(position, sub)
	return t.clock.NextTickTime(remaining, now), nil
}

// ticksToSeconds converts ticks with the tempo at time.
func (t *Transport) ticksToSeconds(ticks, time float64) float64 {
	bpm := t.bpm.GetValueAtTime(time)
	return ticks / t.bpm.Multiplier() * 60 / bpm
}

// processTick is the clock callback.
func (t *Transport) processTick(time float64, tick int) {
	ticks := float64(tick)
	if t.loop && t.loopEnd > t.loopStart && ticks >= t.loopEnd && (t.iterations == 0 || t.loops < t.iterations) {
		t.log.WithFields(logrus.Fields{"time": time, "ticks": ticks}).Debug("loop")
		t.Emit(emitter.Notification{Event: emitter.LoopEnd, Time: time, Ticks: ticks})
		t.clock.SetTicksAtTime(t.loopStart, time)
		ticks = t.loopStart
		t.loops++
		t.meter.Loop()
		t.Emit(emitter.Notification{Event: emitter.LoopStart, Time: time, Ticks: ticks})
		t.Emit(emitter.Notification{Event: emitter.Loop, Time: time, Ticks: ticks})
	}
	time += t.swingOffset(ticks, time)

	t.dispatching = ticks
	var errs cadence.CallbackErrors
	t.timeline.ForEachAtTime(ticks, func(e *event) {
		// cleared by a callback of the same tick
		if _, ok := t.events[e.id]; !ok {
			return
		}
		if err := t.invoke(e, time); err != nil {
			errs = append(errs, err)
		}
	})
	if err := errs.Ret(); err != nil && t.handler != nil {
		t.handler(err)
	}
}

// swingOffset delays ticks which are neither on a quarter note nor on a
// swing window boundary. The delay is a sine of the position within the
// window of two subdivisions, scaled to two thirds of a subdivision.
func (t *Transport) swingOffset(ticks, time float64) float64 {
	window := t.swingTicks * 2
	if t.swing <= 0 || math.Mod(ticks, t.bpm.Multiplier()) == 0 || math.Mod(ticks, window) == 0 {
		return 0
	}
	progress := math.Mod(ticks, window) / window
	amount := math.Sin(progress*math.Pi) * t.swing
	return t.ticksToSeconds(window/3, time) * amount
}

// invoke calls the event within an error boundary.
func (t *Transport) invoke(e *event, time float64) (err error) {
	t.meter.Event()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event %d at tick %v: panic: %v", e.id, e.ticks, r)
		}
		if err != nil {
			t.meter.Failure()
			t.log.WithError(err).WithField("id", e.id).Warn("callback failed")
		}
	}()
	if e.once {
		defer t.Clear(e.id)
	}
	return e.fn(time)
}

// Dispose stops dispatching, removes every scheduled event and synced
// signal and detaches from the context.
func (t *Transport) Dispose() {
	for len(t.synced) > 0 {
		t.UnsyncSignal(t.synced[0].signal)
	}
	t.repeats.ForEach(func(r *repeatEvent) {
		r.dispose()
	})
	t.clock.Dispose()
	t.timeline.Dispose()
	t.repeats.Dispose()
	t.events = make(map[int]*event)
	t.repeatEvents = make(map[int]*repeatEvent)
	t.Emitter.Dispose()
}
