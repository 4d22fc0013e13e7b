// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"sync"
)

// testAmplitude keeps generated tones just below 16-bit full scale.
const testAmplitude = 0.9 * math.MaxInt16

// MockTransport records payloads instead of transmitting them.
type MockTransport struct {
	mu       sync.Mutex
	LastData any
	Sent     int
	Closed   bool
}

// Send stores the payload for later inspection. Float slices are copied so
// the caller may reuse its buffer.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if values, ok := data.([]float64); ok {
		data = append([]float64(nil), values...)
	}
	m.LastData = data
	m.Sent++
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

// GenerateComplexWave returns 16-bit sample codes of a 440 Hz fundamental
// with two harmonics.
func GenerateComplexWave(size int, sampleRate float64) []int {
	buffer := make([]int, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = int(signal * testAmplitude)
	}
	return buffer
}

// GenerateSineWave returns 16-bit sample codes of a pure tone.
func GenerateSineWave(size int, sampleRate, frequency float64) []int {
	buffer := make([]int, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int(math.Sin(2*math.Pi*frequency*t) * testAmplitude)
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in
// magnitudes[startBin:endBin+1]. Out of range bounds are clamped.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	if startBin > endBin {
		return startBin
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
