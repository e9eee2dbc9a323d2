// Package sequence schedules nested step patterns on a transport.
//
// Steps are stored in an arena and referenced by index. A step is a value,
// a rest or a group which splits its slot evenly between its children.
// Changes take effect on Rebuild, which clears every scheduled event and
// schedules the pattern again.
package sequence

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/log"
	"github.com/dudk/cadence/transport"
	"github.com/dudk/cadence/units"
)

// Step is a value, a rest or a group of steps.
type Step[V any] struct {
	value   V
	rest    bool
	grouped bool
	group   []Step[V]
}

// Note returns a step which plays v.
func Note[V any](v V) Step[V] {
	return Step[V]{value: v}
}

// Rest returns a silent step.
func Rest[V any]() Step[V] {
	return Step[V]{rest: true}
}

// Group returns a step which divides its slot between steps.
func Group[V any](steps ...Step[V]) Step[V] {
	return Step[V]{grouped: true, group: steps}
}

// Callback receives the time of a step and its value.
type Callback[V any] func(time float64, v V) error

// Event is a step flattened to its position in the pattern.
type Event[V any] struct {
	Ticks float64
	Value V
}

type node[V any] struct {
	value    V
	rest     bool
	children []int
}

func (n node[V]) isGroup() bool {
	return n.children != nil
}

// Sequence is a pattern of steps scheduled on a transport.
type Sequence[V any] struct {
	uid         string
	log         *logrus.Entry
	t           *transport.Transport
	callback    Callback[V]
	nodes       []node[V]
	steps       []int
	subdivision float64
	loop        bool
	// start is the position in ticks, negative when not started.
	start float64
	ids   []int
}

// Option configures a Sequence.
type Option func(*options)

type options struct {
	subdivision units.Time
	loop        bool
	logger      logrus.FieldLogger
}

// WithSubdivision sets the duration of a top level step. Default is "8n".
func WithSubdivision(v units.Time) Option {
	return func(o *options) {
		o.subdivision = v
	}
}

// WithLoop sets if the pattern repeats. Default is true.
func WithLoop(loop bool) Option {
	return func(o *options) {
		o.loop = loop
	}
}

// WithLogger sets logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a stopped sequence.
func New[V any](t *transport.Transport, callback Callback[V], steps []Step[V], opts ...Option) (*Sequence[V], error) {
	if callback == nil {
		return nil, cadence.InvalidArgument("sequence.New", "callback", nil)
	}
	o := options{
		subdivision: units.Expr("8n"),
		loop:        true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	subdivision, err := t.ToTicks(o.subdivision)
	if err != nil {
		return nil, fmt.Errorf("sequence subdivision: %w", err)
	}
	if subdivision <= 0 || math.IsInf(subdivision, 0) {
		return nil, cadence.InvalidArgument("sequence.New", "subdivision", o.subdivision)
	}
	s := &Sequence[V]{
		uid:         cadence.NewUID(),
		t:           t,
		callback:    callback,
		subdivision: subdivision,
		loop:        o.loop,
		start:       -1,
	}
	s.log = log.Component(o.logger, "sequence", s.uid)
	s.steps = s.alloc(steps)
	return s, nil
}

// alloc appends steps to the arena and returns their indices.
func (s *Sequence[V]) alloc(steps []Step[V]) []int {
	indices := make([]int, 0, len(steps))
	for _, st := range steps {
		n := node[V]{value: st.value, rest: st.rest}
		if st.grouped {
			n.children = s.alloc(st.group)
		}
		s.nodes = append(s.nodes, n)
		indices = append(indices, len(s.nodes)-1)
	}
	return indices
}

// UID returns unique id of the sequence.
func (s *Sequence[V]) UID() string {
	return s.uid
}

// Len returns the number of top level steps.
func (s *Sequence[V]) Len() int {
	return len(s.steps)
}

// Duration returns the pattern length in ticks.
func (s *Sequence[V]) Duration() float64 {
	return float64(len(s.steps)) * s.subdivision
}

// Loop reports if the pattern repeats.
func (s *Sequence[V]) Loop() bool {
	return s.loop
}

// SetLoop sets if the pattern repeats and rebuilds it.
func (s *Sequence[V]) SetLoop(loop bool) error {
	s.loop = loop
	return s.Rebuild()
}

// Started reports if the sequence is scheduled.
func (s *Sequence[V]) Started() bool {
	return s.start >= 0
}

// lookup resolves a path of indices from the top level.
func (s *Sequence[V]) lookup(op string, path []int) (int, error) {
	if len(path) == 0 {
		return 0, cadence.InvalidArgument(op, "path", path)
	}
	level := s.steps
	var idx int
	for i, p := range path {
		if p < 0 || p >= len(level) {
			return 0, cadence.InvalidArgument(op, "path", path)
		}
		idx = level[p]
		if i < len(path)-1 {
			level = s.nodes[idx].children
		}
	}
	if s.nodes[idx].isGroup() {
		return 0, cadence.InvalidArgument(op, "path", path)
	}
	return idx, nil
}

// Value returns the value of the step at path. Rests and groups have no
// value.
func (s *Sequence[V]) Value(path ...int) (V, bool) {
	idx, err := s.lookup("Value", path)
	if err != nil || s.nodes[idx].rest {
		var zero V
		return zero, false
	}
	return s.nodes[idx].value, true
}

// Set sets the value of the step at path and rebuilds the sequence. A rest
// becomes a note.
func (s *Sequence[V]) Set(v V, path ...int) error {
	idx, err := s.lookup("Set", path)
	if err != nil {
		return err
	}
	s.nodes[idx].value = v
	s.nodes[idx].rest = false
	return s.Rebuild()
}

// Mute makes the step at path a rest and rebuilds the sequence.
func (s *Sequence[V]) Mute(path ...int) error {
	idx, err := s.lookup("Mute", path)
	if err != nil {
		return err
	}
	s.nodes[idx].rest = true
	return s.Rebuild()
}

// Events returns sounding steps with their offsets in ticks.
func (s *Sequence[V]) Events() []Event[V] {
	var events []Event[V]
	s.walk(s.steps, 0, s.subdivision, func(idx int, ticks float64) {
		events = append(events, Event[V]{Ticks: ticks, Value: s.nodes[idx].value})
	})
	return events
}

// walk calls fn for every sounding leaf with its offset.
func (s *Sequence[V]) walk(level []int, offset, slot float64, fn func(idx int, ticks float64)) {
	for i, idx := range level {
		at := offset + float64(i)*slot
		n := s.nodes[idx]
		switch {
		case n.isGroup():
			if len(n.children) > 0 {
				s.walk(n.children, at, slot/float64(len(n.children)), fn)
			}
		case !n.rest:
			fn(idx, at)
		}
	}
}

// Start schedules the sequence to begin at transport time.
func (s *Sequence[V]) Start(at units.Time) error {
	ticks, err := s.t.ToTicks(at)
	if err != nil {
		return err
	}
	if math.IsInf(ticks, 0) {
		return cadence.InvalidArgument("Start", "time", at)
	}
	s.start = ticks
	s.log.WithField("ticks", ticks).Debug("start")
	return s.Rebuild()
}

// Stop removes the sequence from the transport.
func (s *Sequence[V]) Stop() {
	s.clear()
	s.start = -1
	s.log.Debug("stop")
}

func (s *Sequence[V]) clear() {
	for _, id := range s.ids {
		s.t.Clear(id)
	}
	s.ids = s.ids[:0]
}

// Rebuild clears scheduled events and schedules the current pattern. It
// has no effect on a stopped sequence.
func (s *Sequence[V]) Rebuild() error {
	s.clear()
	if s.start < 0 {
		return nil
	}
	var err error
	s.walk(s.steps, 0, s.subdivision, func(idx int, ticks float64) {
		if err != nil {
			return
		}
		at := units.Ticks(s.start + ticks)
		fn := s.invoker(idx)
		var id int
		if s.loop {
			id, err = s.t.ScheduleRepeat(fn, units.Ticks(s.Duration()), at, units.Forever)
		} else {
			id, err = s.t.Schedule(fn, at)
		}
		if err == nil {
			s.ids = append(s.ids, id)
		}
	})
	if err != nil {
		s.clear()
		return fmt.Errorf("sequence rebuild: %w", err)
	}
	s.log.WithField("events", len(s.ids)).Debug("rebuild")
	return nil
}

// invoker reads the step value when it fires.
func (s *Sequence[V]) invoker(idx int) transport.Callback {
	return func(time float64) error {
		return s.callback(time, s.nodes[idx].value)
	}
}

// Dispose stops the sequence and releases steps.
func (s *Sequence[V]) Dispose() {
	s.Stop()
	s.nodes = nil
	s.steps = nil
}
