// SPDX-License-Identifier: MIT
package config

import (
	"path/filepath"

	"timbre/internal/synth"
)

// Voice resolves a patch and its timbre into a synth.Voice.
func Voice(p PatchConfig, t TimbreConfig) (synth.Voice, error) {
	if err := t.Validate(); err != nil {
		return synth.Voice{}, err
	}
	if err := p.Validate(); err != nil {
		return synth.Voice{}, err
	}

	partials := make([]synth.Partial, len(t.Partials))
	for i, pc := range t.Partials {
		partials[i] = synth.Partial{Frequency: pc.Frequency, Weight: pc.Weight}
	}
	var env *synth.Envelope
	if t.Decay != nil {
		env = &synth.Envelope{Decay: *t.Decay}
	}

	op, err := synth.ParseCombineOp(p.Combine)
	if err != nil {
		return synth.Voice{}, err
	}
	combiner, err := synth.NewCombiner(op, p.Weights)
	if err != nil {
		return synth.Voice{}, err
	}

	clip := p.ClipRange()
	voice := synth.Voice{
		Bank:     synth.NewBank(partials, env),
		Divisor:  t.Divisor,
		Combiner: combiner,
		ClipLow:  clip.Low,
		ClipHigh: clip.High,
	}
	if p.Carrier != nil {
		voice.Carrier = &synth.Carrier{
			Order:     p.Carrier.Order,
			Terms:     p.Carrier.Terms,
			TimeScale: p.Carrier.TimeScale,
		}
	}
	return voice, nil
}

// OutputPath returns where a render of the named patch is written: the
// patch's output file, or <name>.wav, inside OutputDir. Absolute output
// paths are used as is.
func (c *Config) OutputPath(name string, p PatchConfig) string {
	file := p.Output
	if file == "" {
		file = name + ".wav"
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.OutputDir, file)
}
