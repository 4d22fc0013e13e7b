// SPDX-License-Identifier: MIT
package playback

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"timbre/internal/audio"
	applog "timbre/internal/log"
	"timbre/internal/pcm"
)

// DefaultFramesPerBuffer is used when Options.FramesPerBuffer is zero.
const DefaultFramesPerBuffer = 512

// Options configures one playback.
type Options struct {
	DeviceID        int
	FramesPerBuffer int
	LowLatency      bool
}

// cursor feeds quantized codes to the output callback as float32 samples in
// [-1, 1].
type cursor struct {
	samples []int
	scale   float32
	pos     atomic.Int64
	done    chan struct{}
	closed  atomic.Bool
}

func newCursor(samples []int, bitDepth int) (*cursor, error) {
	q, err := pcm.NewQuantizer(bitDepth)
	if err != nil {
		return nil, err
	}
	return &cursor{
		samples: samples,
		scale:   float32(q.FullScale()),
		done:    make(chan struct{}),
	}, nil
}

// fill is the stream callback. Once the samples run out the remainder of out
// is silenced and done is closed.
func (c *cursor) fill(out []float32) {
	pos := int(c.pos.Load())
	n := copyNormalized(out, c.samples[min(pos, len(c.samples)):], c.scale)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	c.pos.Store(int64(pos + n))

	if pos+n >= len(c.samples) && c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
}

func copyNormalized(out []float32, codes []int, scale float32) int {
	n := min(len(out), len(codes))
	for i := range n {
		out[i] = float32(codes[i]) / scale
	}
	return n
}

// Play streams samples to the selected output device and blocks until they
// have been handed to the device or ctx is cancelled. PortAudio must be
// initialized.
func Play(ctx context.Context, samples []int, format audio.Format, opts Options) error {
	if opts.FramesPerBuffer <= 0 {
		opts.FramesPerBuffer = DefaultFramesPerBuffer
	}

	c, err := newCursor(samples, format.BitDepth)
	if err != nil {
		return err
	}

	device, err := OutputDevice(opts.DeviceID)
	if err != nil {
		return err
	}

	latency := device.DefaultHighOutputLatency
	if opts.LowLatency {
		latency = device.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: audio.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(format.SampleRate),
		FramesPerBuffer: opts.FramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, c.fill)
	if err != nil {
		return fmt.Errorf("opening output stream on %s: %w", device.Name, err)
	}
	defer stream.Close()

	applog.Infof("playback: %d samples at %d Hz on %s", len(samples), format.SampleRate, device.Name)
	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		applog.Info("playback: cancelled")
	}

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stopping output stream: %w", err)
	}
	return ctx.Err()
}
