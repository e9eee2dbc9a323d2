// Package metric publishes counters of running components with expvar.
package metric

import (
	"expvar"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const componentsLabel = "cadence.components"

const (
	// TickCounter measures number of processed ticks.
	TickCounter = "Ticks"
	// EventCounter measures number of dispatched callbacks.
	EventCounter = "Events"
	// FailureCounter measures number of failed callbacks.
	FailureCounter = "Failures"
	// LoopCounter measures number of loop iterations.
	LoopCounter = "Loops"
	// LatencyCounter measures wall-clock latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts audio clock time covered by processing calls.
	DurationCounter = "Duration"
	// ComponentCounter counts number of measured components.
	ComponentCounter = "Components"
)

// registry publishes one expvar map per component type under
// componentsLabel.
var registry = struct {
	sync.Mutex
	published *expvar.Map
	groups    map[string]*group
}{
	published: expvar.NewMap(componentsLabel),
	groups:    make(map[string]*group),
}

// group holds the counters shared by components of one type.
type group struct {
	vars       expvar.Map
	components expvar.Int
	ticks      expvar.Int
	events     expvar.Int
	failures   expvar.Int
	loops      expvar.Int
	latency    durationVar
	duration   durationVar
}

// groupOf returns the counters of a component type, creating them on the
// first call.
func groupOf(name string) *group {
	registry.Lock()
	defer registry.Unlock()
	if g, ok := registry.groups[name]; ok {
		return g
	}
	g := &group{}
	g.vars.Init()
	g.vars.Set(ComponentCounter, &g.components)
	g.vars.Set(TickCounter, &g.ticks)
	g.vars.Set(EventCounter, &g.events)
	g.vars.Set(FailureCounter, &g.failures)
	g.vars.Set(LoopCounter, &g.loops)
	g.vars.Set(LatencyCounter, &g.latency)
	g.vars.Set(DurationCounter, &g.duration)
	registry.published.Set(name, &g.vars)
	registry.groups[name] = g
	return g
}

func (g *group) values() map[string]string {
	values := make(map[string]string)
	g.vars.Do(func(kv expvar.KeyValue) {
		values[kv.Key] = kv.Value.String()
	})
	return values
}

// typeName is the component type without pointers, e.g. "clock.Clock".
func typeName(component interface{}) string {
	t := reflect.TypeOf(component)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// Get returns counter values of the component's type. Types which were
// never metered have no values.
func Get(component interface{}) map[string]string {
	name := typeName(component)
	registry.Lock()
	g, ok := registry.groups[name]
	registry.Unlock()
	if !ok {
		return map[string]string{}
	}
	return g.values()
}

// GetAll returns counter values of every metered type.
func GetAll() map[string]map[string]string {
	registry.Lock()
	defer registry.Unlock()
	all := make(map[string]map[string]string, len(registry.groups))
	for name, g := range registry.groups {
		all[name] = g.values()
	}
	return all
}

// Measure captures counters of a single component. Counters are shared
// by all components of the same type.
type Measure struct {
	*group
	calledAt int64
}

// Meter registers component and returns its measure.
func Meter(component interface{}) *Measure {
	g := groupOf(typeName(component))
	g.components.Add(1)
	return &Measure{
		group:    g,
		calledAt: time.Now().UnixNano(),
	}
}

// Reset restarts latency measurement. It's called when component starts
// running.
func (m *Measure) Reset() {
	atomic.StoreInt64(&m.calledAt, time.Now().UnixNano())
}

// Process captures a processing call which covered ticks and audio clock
// duration in seconds.
func (m *Measure) Process(ticks int64, seconds float64) {
	now := time.Now().UnixNano()
	m.latency.set(time.Duration(now - atomic.SwapInt64(&m.calledAt, now)))
	m.ticks.Add(ticks)
	m.duration.add(time.Duration(seconds * float64(time.Second)))
}

// Event captures a dispatched callback.
func (m *Measure) Event() {
	m.events.Add(1)
}

// Failure captures a failed callback.
func (m *Measure) Failure() {
	m.failures.Add(1)
}

// Loop captures a loop iteration.
func (m *Measure) Loop() {
	m.loops.Add(1)
}

// durationVar is an expvar.Var formatted as a quoted time.Duration.
type durationVar struct {
	ns atomic.Int64
}

func (v *durationVar) String() string {
	return strconv.Quote(time.Duration(v.ns.Load()).String())
}

func (v *durationVar) add(d time.Duration) {
	v.ns.Add(int64(d))
}

func (v *durationVar) set(d time.Duration) {
	v.ns.Store(int64(d))
}
