// Package render samples automation curves into audio buffers.
package render

import (
	"math"

	"github.com/go-audio/audio"

	"github.com/dudk/cadence"
)

// Signal is a value which changes over time, like param.Param or
// param.TickParam.
type Signal interface {
	GetValueAtTime(t float64) float64
}

// Render samples signals from start for duration seconds. Every signal is
// a channel of the interleaved buffer.
func Render(sampleRate int, start, duration float64, signals ...Signal) (*audio.FloatBuffer, error) {
	if sampleRate <= 0 {
		return nil, cadence.InvalidArgument("render.Render", "sample rate", sampleRate)
	}
	if !finite(start) || start < 0 {
		return nil, cadence.InvalidArgument("render.Render", "start", start)
	}
	if !finite(duration) || duration < 0 {
		return nil, cadence.InvalidArgument("render.Render", "duration", duration)
	}
	if len(signals) == 0 {
		return nil, cadence.InvalidArgument("render.Render", "signals", 0)
	}
	frames := int(math.Round(duration * float64(sampleRate)))
	numChannels := len(signals)
	buf := &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data: make([]float64, frames*numChannels),
	}
	for i := 0; i < frames; i++ {
		t := start + float64(i)/float64(sampleRate)
		for c, s := range signals {
			buf.Data[i*numChannels+c] = s.GetValueAtTime(t)
		}
	}
	return buf, nil
}

// Normalize scales every channel of the buffer into [-1, 1] by its own
// minimum and maximum. Constant channels become zero.
func Normalize(buf *audio.FloatBuffer) {
	numChannels := buf.Format.NumChannels
	for c := 0; c < numChannels; c++ {
		min, max := math.Inf(1), math.Inf(-1)
		for i := c; i < len(buf.Data); i += numChannels {
			min = math.Min(min, buf.Data[i])
			max = math.Max(max, buf.Data[i])
		}
		for i := c; i < len(buf.Data); i += numChannels {
			if max > min {
				buf.Data[i] = (buf.Data[i]-min)/(max-min)*2 - 1
			} else {
				buf.Data[i] = 0
			}
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
