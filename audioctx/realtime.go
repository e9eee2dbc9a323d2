package audioctx

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/log"
)

// DefaultLookAhead is the look ahead of Realtime context.
const DefaultLookAhead = 0.1

// Realtime is an audio clock that follows the monotonic clock. A ticker
// goroutine fires tick listeners every interval. Engine objects attached
// to the context must only be used inside Exec.
type Realtime struct {
	listeners
	uid        string
	log        *logrus.Entry
	exec       sync.Mutex
	started    time.Time
	sampleRate float64
	lookAhead  float64
	interval   time.Duration

	cancel chan struct{}
	done   chan struct{}
	once   sync.Once
}

// RealtimeOption configures a Realtime context.
type RealtimeOption func(*Realtime)

// WithLookAhead sets the look ahead in seconds.
func WithLookAhead(s float64) RealtimeOption {
	return func(r *Realtime) {
		r.lookAhead = s
	}
}

// WithInterval sets the period of ticks.
func WithInterval(d time.Duration) RealtimeOption {
	return func(r *Realtime) {
		r.interval = d
	}
}

// WithSampleRate sets the reported sample rate.
func WithSampleRate(sr float64) RealtimeOption {
	return func(r *Realtime) {
		r.sampleRate = sr
	}
}

// WithLogger sets logger.
func WithLogger(l logrus.FieldLogger) RealtimeOption {
	return func(r *Realtime) {
		r.log = log.Component(l, "audioctx", r.uid)
	}
}

// NewRealtime creates a context and starts its ticker. Close must be
// called to stop it.
func NewRealtime(opts ...RealtimeOption) (*Realtime, error) {
	r := &Realtime{
		uid:        cadence.NewUID(),
		sampleRate: DefaultSampleRate,
		lookAhead:  DefaultLookAhead,
		interval:   time.Second * DefaultBlockSize / DefaultSampleRate,
		cancel:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	r.log = log.Component(nil, "audioctx", r.uid)
	for _, opt := range opts {
		opt(r)
	}
	if !(r.sampleRate > 0) || math.IsInf(r.sampleRate, 0) {
		return nil, cadence.InvalidArgument("audioctx.NewRealtime", "sample rate", r.sampleRate)
	}
	if r.interval <= 0 {
		return nil, cadence.InvalidArgument("audioctx.NewRealtime", "interval", r.interval)
	}
	if !(r.lookAhead >= 0) {
		return nil, cadence.InvalidArgument("audioctx.NewRealtime", "look ahead", r.lookAhead)
	}
	r.started = time.Now()
	go r.run()
	r.log.WithField("interval", r.interval).Debug("started")
	return r, nil
}

func (r *Realtime) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.cancel:
			return
		case <-ticker.C:
			r.exec.Lock()
			r.fire()
			r.exec.Unlock()
		}
	}
}

// CurrentTime implements cadence.Context.
func (r *Realtime) CurrentTime() float64 {
	return time.Since(r.started).Seconds()
}

// Interval returns the period of ticks.
func (r *Realtime) Interval() time.Duration {
	return r.interval
}

// LookAhead implements cadence.Context.
func (r *Realtime) LookAhead() float64 {
	return r.lookAhead
}

// SampleRate implements cadence.Context.
func (r *Realtime) SampleRate() float64 {
	return r.sampleRate
}

// OnTick implements cadence.Context.
func (r *Realtime) OnTick(fn func()) func() {
	return r.add(fn)
}

// Exec calls fn between ticks.
func (r *Realtime) Exec(fn func()) {
	r.exec.Lock()
	defer r.exec.Unlock()
	fn()
}

// Close stops the ticker and waits for the goroutine to exit. It's safe to
// call Close more than once.
func (r *Realtime) Close() error {
	r.once.Do(func() {
		close(r.cancel)
		<-r.done
		r.log.Debug("closed")
	})
	return nil
}
