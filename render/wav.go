package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")

const pcm = 1

// WriteWAV encodes the buffer as PCM. Samples are clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, buf *audio.FloatBuffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 32 {
		return ErrUnsupportedBitDepth
	}
	e := wav.NewEncoder(w, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, pcm)
	ib := &audio.IntBuffer{
		Format:         buf.Format,
		Data:           make([]int, len(buf.Data)),
		SourceBitDepth: bitDepth,
	}
	scale := math.Pow(2, float64(bitDepth-1)) - 1
	for i, v := range buf.Data {
		ib.Data[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * scale))
	}
	if err := e.Write(ib); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	return e.Close()
}

// WriteWAVFile creates the file at path and writes the buffer to it.
func WriteWAVFile(path string, buf *audio.FloatBuffer, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, buf, bitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
