// SPDX-License-Identifier: MIT
/*
Package synth implements the synthesis pipeline:

  - a truncated series carrier (EvaluateSeries, Carrier)
  - a harmonic oscillator bank with an optional exponential envelope (Bank)
  - combination of the sources and hard clipping (Combiner, Clip)
  - quantization and streaming to a sample sink (Renderer)

Rendering is a sequential scan over N samples with no buffering of its own:
each sample is generated, combined, quantized and written before the next one
is computed.
*/
package synth

import (
	"errors"
	"fmt"
	"math"
	"time"

	"timbre/internal/pcm"
)

// Pipeline stages reported by StageError.
const (
	StageWrite = "write"
	StageClose = "close"
)

// SampleSink accepts quantized samples in strictly increasing time order.
type SampleSink interface {
	WriteSample(code int) error
}

// StageError identifies the stage and sample index at which a pipeline failed.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("synth: %s failed at sample %d: %v", e.Stage, e.Index, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Voice is one fully resolved synthesis configuration.
type Voice struct {
	Carrier  *Carrier  // optional; its value is clipped to [ClipLow, ClipHigh] before combining
	Bank     *Bank     // required harmonic source
	Divisor  float64   // fixed normalization of the bank output, 0 means 1
	Combiner *Combiner // nil means Product
	ClipLow  float64
	ClipHigh float64
}

// Options holds the per-render parameters.
type Options struct {
	SampleRate int
	BitDepth   int
	Samples    int      // N, the number of samples to render
	Observer   Observer // optional diagnostics
}

// Stats summarizes a completed render.
type Stats struct {
	Samples   int     // samples written
	Clipped   int     // samples saturated by the output clip
	NonFinite int     // samples whose combined value was NaN or ±Inf
	Peak      float64 // largest |raw| value seen, ignoring NaN
}

// Renderer drives one voice over N samples.
type Renderer struct {
	voice     Voice
	opts      Options
	quantizer *pcm.Quantizer
	combiner  *Combiner
	sources   []float64 // reused per sample
}

// NewRenderer validates the voice and options. Unsupported bit depths are
// rejected here, before any sample is written.
func NewRenderer(voice Voice, opts Options) (*Renderer, error) {
	if voice.Bank == nil {
		return nil, errors.New("synth: voice has no harmonic bank")
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("synth: sample rate must be positive, got %d", opts.SampleRate)
	}
	if opts.Samples < 0 {
		return nil, fmt.Errorf("synth: sample count must not be negative, got %d", opts.Samples)
	}
	if !(voice.ClipLow < voice.ClipHigh) {
		return nil, fmt.Errorf("synth: clip bounds [%g, %g] are empty", voice.ClipLow, voice.ClipHigh)
	}

	q, err := pcm.NewQuantizer(opts.BitDepth)
	if err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}

	numSources := 1
	if voice.Carrier != nil {
		numSources = 2
	}

	combiner := voice.Combiner
	if combiner == nil {
		combiner = &Combiner{op: Product}
	}
	if combiner.op == WeightedSum && len(combiner.weights) != numSources {
		return nil, fmt.Errorf("synth: weighted sum has %d weights for %d sources",
			len(combiner.weights), numSources)
	}

	if voice.Divisor == 0 {
		voice.Divisor = 1
	}

	return &Renderer{
		voice:     voice,
		opts:      opts,
		quantizer: q,
		combiner:  combiner,
		sources:   make([]float64, numSources),
	}, nil
}

// Sample computes every stage for TimeIndex n into ev.
func (r *Renderer) Sample(n int, ev *SampleEvent) {
	t := float64(n) / float64(r.opts.SampleRate)

	carrier := 1.0
	i := 0
	if r.voice.Carrier != nil {
		carrier = Clip(r.voice.Carrier.At(t), r.voice.ClipLow, r.voice.ClipHigh)
		r.sources[i] = carrier
		i++
	}
	timbre := r.voice.Bank.At(t) / r.voice.Divisor
	r.sources[i] = timbre

	raw := r.combiner.Combine(r.sources)
	clipped := Clip(raw, r.voice.ClipLow, r.voice.ClipHigh)

	*ev = SampleEvent{
		Index:   n,
		Time:    t,
		Carrier: carrier,
		Timbre:  timbre,
		Raw:     raw,
		Clipped: clipped,
		Code:    r.quantizer.Quantize(clipped),
	}
}

// Render writes opts.Samples samples to sink in time order. It stops at the
// first sink error and returns it as a *StageError; the sink is left as is.
func (r *Renderer) Render(sink SampleSink) (Stats, error) {
	var (
		stats Stats
		ev    SampleEvent
	)
	for n := 0; n < r.opts.Samples; n++ {
		r.Sample(n, &ev)

		if !IsFinite(ev.Raw) {
			stats.NonFinite++
		} else {
			if a := math.Abs(ev.Raw); a > stats.Peak {
				stats.Peak = a
			}
			if IsClipped(ev.Raw, r.voice.ClipLow, r.voice.ClipHigh) {
				stats.Clipped++
			}
		}

		if r.opts.Observer != nil {
			r.opts.Observer.ObserveSample(&ev)
		}

		if err := sink.WriteSample(ev.Code); err != nil {
			return stats, &StageError{Stage: StageWrite, Index: n, Err: err}
		}
		stats.Samples++
	}
	return stats, nil
}

// Quantizer exposes the renderer's quantizer.
func (r *Renderer) Quantizer() *pcm.Quantizer {
	return r.quantizer
}

// SampleCount converts a duration to a whole number of samples at sampleRate.
func SampleCount(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}
