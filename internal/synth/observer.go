// SPDX-License-Identifier: MIT
package synth

import applog "timbre/internal/log"

// SampleEvent describes every intermediate value produced for one TimeIndex.
type SampleEvent struct {
	Index   int     // sample position n
	Time    float64 // n / sampleRate
	Carrier float64 // clipped series value, 1 when the voice has no carrier
	Timbre  float64 // harmonic sum after envelope and divisor
	Raw     float64 // combined value before the output clip
	Clipped float64 // value handed to the quantizer
	Code    int     // quantized PCM code
}

// Observer receives one event per rendered sample. It is a side channel only:
// rendering never depends on it. Implementations must not retain the event.
type Observer interface {
	ObserveSample(ev *SampleEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev *SampleEvent)

func (f ObserverFunc) ObserveSample(ev *SampleEvent) { f(ev) }

// Observers fans an event out to several observers in order.
type Observers []Observer

func (o Observers) ObserveSample(ev *SampleEvent) {
	for _, obs := range o {
		obs.ObserveSample(ev)
	}
}

// DebugObserver logs every sample at DEBUG level.
type DebugObserver struct{}

func (DebugObserver) ObserveSample(ev *SampleEvent) {
	applog.Debugf("synth: n=%d t=%.6f carrier=%g timbre=%g raw=%g code=%d",
		ev.Index, ev.Time, ev.Carrier, ev.Timbre, ev.Raw, ev.Code)
}
