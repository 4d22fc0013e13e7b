// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyBand defines the name and frequency range for an energy band.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64 // exclusive
}

// BandEnergy is the mean energy of the bins that fall inside one band.
type BandEnergy struct {
	Band   FrequencyBand
	Energy float64 // mean |X[k]|^2 over the band's bins
	RMS    float64 // sqrt(Energy)
	Bins   int
}

// DefaultBands splits the audible range into the usual mixing regions. The
// top band ends at the Nyquist frequency.
func DefaultBands(sampleRate float64) []FrequencyBand {
	return []FrequencyBand{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: sampleRate / 2},
	}
}

// BandEnergies accumulates the energy of the non-negative frequency bins of s
// into bands. A bin belongs to the first band whose range contains it.
func BandEnergies(s *Spectrum, bands []FrequencyBand) []BandEnergy {
	out := make([]BandEnergy, len(bands))
	for i, b := range bands {
		out[i].Band = b
	}

	for k, mag := range s.Magnitudes() {
		freq := s.Frequency(k)
		for i := range out {
			if freq >= out[i].Band.LowHz && freq < out[i].Band.HighHz {
				out[i].Energy += mag * mag
				out[i].Bins++
				break
			}
		}
	}

	for i := range out {
		if out[i].Bins > 0 {
			out[i].Energy /= float64(out[i].Bins)
		}
		out[i].RMS = math.Sqrt(out[i].Energy)
	}
	return out
}
