// SPDX-License-Identifier: MIT
package synth

import "math"

// Partial is one weighted sinusoid of a timbre.
type Partial struct {
	Frequency float64 // Hz
	Weight    float64
}

// Envelope is an exponential amplitude decay exp(-Decay*t).
type Envelope struct {
	Decay float64 // per second, must be positive for a decaying sound
}

// At returns the envelope factor at time t.
func (e Envelope) At(t float64) float64 {
	return math.Exp(-e.Decay * t)
}

// Bank sums a fixed table of partials, optionally shaped by an envelope.
// Weights are not normalized; keeping the output in range is up to the caller.
type Bank struct {
	partials []Partial
	envelope *Envelope
}

// NewBank copies partials so later changes by the caller do not leak in.
// A nil envelope means a constant factor of 1.
func NewBank(partials []Partial, envelope *Envelope) *Bank {
	p := make([]Partial, len(partials))
	copy(p, partials)
	var env *Envelope
	if envelope != nil {
		e := *envelope
		env = &e
	}
	return &Bank{partials: p, envelope: env}
}

// At returns envelope(t) * Σ weight_i * sin(2π * frequency_i * t).
func (b *Bank) At(t float64) float64 {
	var sum float64
	for _, p := range b.partials {
		sum += p.Weight * math.Sin(2*math.Pi*p.Frequency*t)
	}
	if b.envelope != nil {
		sum *= b.envelope.At(t)
	}
	return sum
}

// Partials returns a copy of the partial table.
func (b *Bank) Partials() []Partial {
	p := make([]Partial, len(b.partials))
	copy(p, b.partials)
	return p
}

// Envelope returns the envelope, or nil when the bank is undamped.
func (b *Bank) Envelope() *Envelope {
	return b.envelope
}
