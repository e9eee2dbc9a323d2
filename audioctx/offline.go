package audioctx

import (
	"math"

	"github.com/dudk/cadence"
)

// Offline is an audio clock which only moves when advanced. It processes
// time in blocks of BlockSize frames and fires tick listeners after every
// block.
type Offline struct {
	listeners
	frames     int64
	sampleRate float64
	blockSize  int
	lookAhead  float64
}

// OfflineOption configures an Offline context.
type OfflineOption func(*Offline)

// WithBlockSize sets the number of frames per tick.
func WithBlockSize(frames int) OfflineOption {
	return func(o *Offline) {
		o.blockSize = frames
	}
}

// WithOfflineLookAhead sets the look ahead in seconds.
func WithOfflineLookAhead(s float64) OfflineOption {
	return func(o *Offline) {
		o.lookAhead = s
	}
}

// NewOffline creates a context at time zero.
func NewOffline(sampleRate float64, opts ...OfflineOption) (*Offline, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, cadence.InvalidArgument("audioctx.NewOffline", "sample rate", sampleRate)
	}
	o := &Offline{
		sampleRate: sampleRate,
		blockSize:  DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.blockSize <= 0 {
		return nil, cadence.InvalidArgument("audioctx.NewOffline", "block size", o.blockSize)
	}
	if !(o.lookAhead >= 0) {
		return nil, cadence.InvalidArgument("audioctx.NewOffline", "look ahead", o.lookAhead)
	}
	return o, nil
}

// CurrentTime implements cadence.Context.
func (o *Offline) CurrentTime() float64 {
	return float64(o.frames) / o.sampleRate
}

// LookAhead implements cadence.Context.
func (o *Offline) LookAhead() float64 {
	return o.lookAhead
}

// SampleRate implements cadence.Context.
func (o *Offline) SampleRate() float64 {
	return o.sampleRate
}

// OnTick implements cadence.Context.
func (o *Offline) OnTick(fn func()) func() {
	return o.add(fn)
}

// Listeners returns number of registered tick listeners.
func (o *Offline) Listeners() int {
	return o.len()
}

// BlockSize returns number of frames per tick.
func (o *Offline) BlockSize() int {
	return o.blockSize
}

// Frames returns number of processed frames.
func (o *Offline) Frames() int64 {
	return o.frames
}

// Advance processes n blocks.
func (o *Offline) Advance(n int) {
	for i := 0; i < n; i++ {
		o.Process(o.blockSize)
	}
}

// Process moves time by frames and fires tick listeners once.
func (o *Offline) Process(frames int) {
	o.frames += int64(frames)
	o.fire()
}

// AdvanceTo processes blocks until the current time reaches t. The last
// block may end after t.
func (o *Offline) AdvanceTo(t float64) {
	end := int64(math.Ceil(t * o.sampleRate))
	for o.frames < end {
		o.Advance(1)
	}
}
