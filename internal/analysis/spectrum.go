// SPDX-License-Identifier: MIT
/*
Package analysis computes the discrete Fourier transform of a recorded signal.

The transform length K is chosen by the caller and must be at least the
number of input samples. Shorter inputs are zero-padded up to K; input is
never truncated and K is never rounded to a transform-friendly size here.
*/
package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	// ErrEmptyInput is returned when there are no samples to analyze.
	ErrEmptyInput = errors.New("analysis: empty input")
	// ErrTransformTooShort is returned when K is smaller than the sample count.
	ErrTransformTooShort = errors.New("analysis: transform length shorter than input")
	// ErrInvalidTransformLength is returned for K <= 0.
	ErrInvalidTransformLength = errors.New("analysis: transform length must be positive")
)

// Analyzer performs forward transforms of a fixed length.
type Analyzer struct {
	length int
	window WindowFunc
	fft    *fourier.CmplxFFT
	seq    []complex128 // Reusable zero-padded input
}

// NewAnalyzer prepares a transform of length transformLength.
func NewAnalyzer(transformLength int, windowType WindowFunc) (*Analyzer, error) {
	if transformLength <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidTransformLength, transformLength)
	}
	return &Analyzer{
		length: transformLength,
		window: windowType,
		fft:    fourier.NewCmplxFFT(transformLength),
		seq:    make([]complex128, transformLength),
	}, nil
}

// Len returns the transform length K.
func (a *Analyzer) Len() int {
	return a.length
}

// Analyze converts each sample to a complex value with zero imaginary part,
// applies the window over the samples, zero-pads to K and returns K bins.
func (a *Analyzer) Analyze(samples []int) ([]complex128, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}
	if len(samples) > a.length {
		return nil, fmt.Errorf("%w: %d samples, transform length %d",
			ErrTransformTooShort, len(samples), a.length)
	}

	var coeffs []float64
	if a.window != None {
		coeffs = windowCoefficients(len(samples), a.window)
	}

	for i := range a.seq {
		switch {
		case i >= len(samples):
			a.seq[i] = 0
		case coeffs != nil:
			a.seq[i] = complex(float64(samples[i])*coeffs[i], 0)
		default:
			a.seq[i] = complex(float64(samples[i]), 0)
		}
	}

	return a.fft.Coefficients(nil, a.seq), nil
}

// Analyze is a one-shot helper: it builds an unwindowed Analyzer of length
// transformLength and runs it on samples.
func Analyze(samples []int, transformLength int) ([]complex128, error) {
	a, err := NewAnalyzer(transformLength, None)
	if err != nil {
		return nil, err
	}
	return a.Analyze(samples)
}

// BinFrequency returns the centre frequency of bin k in Hz. Bins below K/2
// map to positive frequencies, the rest alias to negative ones.
func BinFrequency(k, transformLength int, sampleRate float64) float64 {
	if transformLength <= 0 || k < 0 || k >= transformLength {
		return 0
	}
	if k < (transformLength-1)/2+1 {
		return float64(k) * sampleRate / float64(transformLength)
	}
	return float64(k-transformLength) * sampleRate / float64(transformLength)
}

// ValueKind selects the scalar persisted for each bin.
type ValueKind int

const (
	Imag ValueKind = iota
	Real
	Magnitude
	Phase
)

func (v ValueKind) String() string {
	switch v {
	case Imag:
		return "imag"
	case Real:
		return "real"
	case Magnitude:
		return "magnitude"
	case Phase:
		return "phase"
	default:
		return "unknown"
	}
}

// ParseValueKind converts a case-insensitive name to a ValueKind.
func ParseValueKind(name string) (ValueKind, error) {
	switch strings.ToLower(name) {
	case "", "imag", "im", "imaginary":
		return Imag, nil
	case "real", "re":
		return Real, nil
	case "magnitude", "mag", "abs":
		return Magnitude, nil
	case "phase", "arg":
		return Phase, nil
	default:
		return Imag, fmt.Errorf("unknown bin value kind: '%s'", name)
	}
}

// Value derives the selected scalar from one bin.
func (v ValueKind) Value(c complex128) float64 {
	switch v {
	case Real:
		return real(c)
	case Magnitude:
		return cmplx.Abs(c)
	case Phase:
		return cmplx.Phase(c)
	default:
		return imag(c)
	}
}

// Values derives the selected scalar for every bin into a new slice.
func Values(bins []complex128, kind ValueKind) []float64 {
	out := make([]float64, len(bins))
	for i, c := range bins {
		out[i] = kind.Value(c)
	}
	return out
}

// Spectrum bundles the bins of one analysis with the parameters needed to
// interpret them.
type Spectrum struct {
	SampleRate float64
	Samples    int // input samples before padding
	Bins       []complex128
}

// Len returns the transform length K.
func (s *Spectrum) Len() int {
	return len(s.Bins)
}

// Resolution returns the bin spacing sampleRate / K in Hz.
func (s *Spectrum) Resolution() float64 {
	if len(s.Bins) == 0 {
		return 0
	}
	return s.SampleRate / float64(len(s.Bins))
}

// Frequency returns the centre frequency of bin k.
func (s *Spectrum) Frequency(k int) float64 {
	return BinFrequency(k, len(s.Bins), s.SampleRate)
}

// Magnitudes returns |X[k]| for the non-negative frequency half of the spectrum.
func (s *Spectrum) Magnitudes() []float64 {
	half := len(s.Bins)/2 + 1
	if half > len(s.Bins) {
		half = len(s.Bins)
	}
	return Values(s.Bins[:half], Magnitude)
}
