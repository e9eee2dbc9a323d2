// Package portaudio provides an audio clock driven by a PortAudio output
// stream.
package portaudio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/dudk/cadence"
	"github.com/dudk/cadence/audioctx"
	"github.com/dudk/cadence/log"
)

// DefaultBufferSize is the number of frames per stream callback.
const DefaultBufferSize = 512

// Context is a cadence.Context whose time is the number of frames played
// by the default output device. Tick listeners are called from the stream
// callback, so engine objects attached to it must only be used inside
// Exec.
type Context struct {
	*audioctx.Offline
	uid         string
	log         *logrus.Entry
	m           sync.Mutex
	stream      *portaudio.Stream
	bufferSize  int
	numChannels int
}

// Option configures a Context.
type Option func(*options)

type options struct {
	bufferSize  int
	numChannels int
	lookAhead   float64
	logger      logrus.FieldLogger
}

// WithBufferSize sets frames per stream callback.
func WithBufferSize(frames int) Option {
	return func(o *options) {
		o.bufferSize = frames
	}
}

// WithChannels sets the number of output channels.
func WithChannels(n int) Option {
	return func(o *options) {
		o.numChannels = n
	}
}

// WithLookAhead sets the look ahead in seconds. It should cover at least a
// buffer.
func WithLookAhead(s float64) Option {
	return func(o *options) {
		o.lookAhead = s
	}
}

// WithLogger sets logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates a context for the default output device. It's stopped
// until Start is called.
func New(sampleRate float64, opts ...Option) (*Context, error) {
	o := options{
		bufferSize:  DefaultBufferSize,
		numChannels: 2,
		lookAhead:   audioctx.DefaultLookAhead,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.numChannels <= 0 {
		return nil, cadence.InvalidArgument("portaudio.New", "channels", o.numChannels)
	}
	offline, err := audioctx.NewOffline(sampleRate,
		audioctx.WithBlockSize(o.bufferSize),
		audioctx.WithOfflineLookAhead(o.lookAhead),
	)
	if err != nil {
		return nil, err
	}
	c := &Context{
		Offline:     offline,
		uid:         cadence.NewUID(),
		bufferSize:  o.bufferSize,
		numChannels: o.numChannels,
	}
	c.log = log.Component(o.logger, "portaudio", c.uid)
	return c, nil
}

// Start initializes PortAudio and starts the output stream.
func (c *Context) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio initialize: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, c.numChannels, c.SampleRate(), c.bufferSize, c.process)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("portaudio open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("portaudio start stream: %w", err)
	}
	c.stream = stream
	c.log.WithFields(logrus.Fields{
		"sampleRate": c.SampleRate(),
		"bufferSize": c.bufferSize,
		"channels":   c.numChannels,
	}).Debug("stream started")
	return nil
}

// process is the stream callback. Output is silence.
func (c *Context) process(out []float32) {
	for i := range out {
		out[i] = 0
	}
	c.m.Lock()
	defer c.m.Unlock()
	c.Process(len(out) / c.numChannels)
}

// Exec calls fn between stream callbacks.
func (c *Context) Exec(fn func()) {
	c.m.Lock()
	defer c.m.Unlock()
	fn()
}

// Close stops the stream and terminates PortAudio.
func (c *Context) Close() error {
	if c.stream == nil {
		return nil
	}
	stream := c.stream
	c.stream = nil
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("portaudio stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("portaudio close stream: %w", err)
	}
	c.log.Debug("stream closed")
	return portaudio.Terminate()
}
