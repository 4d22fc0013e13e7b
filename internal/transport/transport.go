// SPDX-License-Identifier: MIT

// Package transport publishes analysis results to external consumers.
package transport

import (
	"timbre/internal/analysis"
	"timbre/pkg/utils"
)

// Transport defines a generic interface for sending computed results.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Frame is the JSON payload published for one spectrum.
type Frame struct {
	SampleRate float64   `json:"sampleRate"`
	Samples    int       `json:"samples"`
	Length     int       `json:"transformLength"`
	Value      string    `json:"value"`
	Resolution float64   `json:"resolutionHz"`
	PeakBin    int       `json:"peakBin"`
	PeakHz     float64   `json:"peakHz"`
	Values     []float64 `json:"values"`
}

// NewFrame derives the published values of s with kind. The peak is searched
// over the non-negative frequency half, skipping DC.
func NewFrame(s *analysis.Spectrum, kind analysis.ValueKind) *Frame {
	mags := s.Magnitudes()
	start := 1
	if len(mags) < 2 {
		start = 0
	}
	peak := utils.FindPeakBin(mags, start, len(mags)-1)

	return &Frame{
		SampleRate: s.SampleRate,
		Samples:    s.Samples,
		Length:     s.Len(),
		Value:      kind.String(),
		Resolution: s.Resolution(),
		PeakBin:    peak,
		PeakHz:     s.Frequency(peak),
		Values:     analysis.Values(s.Bins, kind),
	}
}
