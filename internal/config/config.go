// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the synthesizer.
const (
	DefaultLogLevel        = "info"
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultBitDepth        = 16          // Signed 16-bit PCM
	DefaultDuration        = time.Second // One second per render
	DefaultFramesPerBuffer = 512         // Balanced playback latency
	DefaultDeviceID        = -1          // -1 represents the system default device
	DefaultOutputDir       = "."
	DefaultTransportAddr   = ":8080"
	DefaultPatch           = "bessel"
	DefaultFileName        = "timbre.yaml"

	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxSeriesTerms  = 170    // 171! overflows float64
)

// Config represents the application configuration, loaded from YAML.
type Config struct {
	LogLevel  string                  `yaml:"log_level"`  // Logging level (e.g., "debug", "info", "warn", "error").
	OutputDir string                  `yaml:"output_dir"` // Directory rendered files are written to.
	Audio     AudioConfig             `yaml:"audio"`      // Render and playback settings.
	Timbres   map[string]TimbreConfig `yaml:"timbres"`    // Named harmonic tables, merged over the built-ins.
	Patches   map[string]PatchConfig  `yaml:"patches"`    // Named synthesis pipelines, merged over the built-ins.
	Analysis  AnalysisConfig          `yaml:"analysis"`   // Spectrum export settings.
	Transport TransportConfig         `yaml:"transport"`  // Spectrum publishing settings.
}

// AudioConfig holds settings related to rendering and playback.
type AudioConfig struct {
	SampleRate      int           `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	BitDepth        int           `yaml:"bit_depth"`         // PCM bit depth: 8, 16, 24 or 32.
	Duration        time.Duration `yaml:"duration"`          // Length of a render (e.g., "1s", "2500ms").
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // Playback buffer size in frames.
	OutputDevice    int           `yaml:"output_device"`     // PortAudio device index for playback (-1 for default).
	LowLatency      bool          `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
}

// PartialConfig is one (frequency, weight) entry of a timbre.
type PartialConfig struct {
	Frequency float64 `yaml:"frequency"`
	Weight    float64 `yaml:"weight"`
}

// TimbreConfig is a harmonic table with its normalization and optional
// exponential decay. A nil Decay means no envelope.
type TimbreConfig struct {
	Partials []PartialConfig `yaml:"partials"`
	Divisor  float64         `yaml:"divisor,omitempty"`
	Decay    *float64        `yaml:"decay,omitempty"`
}

// CarrierConfig configures the truncated series carrier, evaluated at
// x = TimeScale * t.
type CarrierConfig struct {
	Order     float64 `yaml:"order"`
	Terms     int     `yaml:"terms"`
	TimeScale float64 `yaml:"time_scale"`
}

// ClipConfig bounds both the carrier and the combined signal.
type ClipConfig struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// PatchConfig wires a timbre, an optional carrier and a combination rule
// into one synthesis pipeline.
type PatchConfig struct {
	Timbre  string         `yaml:"timbre"`
	Carrier *CarrierConfig `yaml:"carrier,omitempty"`
	Combine string         `yaml:"combine,omitempty"` // product (default), sum, weighted_sum
	Weights []float64      `yaml:"weights,omitempty"` // weighted_sum only, carrier first
	Clip    *ClipConfig    `yaml:"clip,omitempty"`    // defaults to [-1, 1]
	Output  string         `yaml:"output,omitempty"`  // defaults to <patch>.wav
}

// AnalysisConfig holds spectrum export settings.
type AnalysisConfig struct {
	TransformLength int    `yaml:"transform_length"` // K; 0 picks the next power of two >= N
	Value           string `yaml:"value"`            // imag, real, magnitude or phase
	Window          string `yaml:"window"`           // none, hann, hamming, ...
}

// TransportConfig holds settings for publishing spectra over the network.
type TransportConfig struct {
	Addr        string `yaml:"addr"`         // Listen address serving /ws (and /metrics unless MetricsAddr is set).
	MetricsAddr string `yaml:"metrics_addr"` // Separate listen address for /metrics.
}

// DefaultClip is the clip range used when a patch sets none.
var DefaultClip = ClipConfig{Low: -1, High: 1}

func decay(k float64) *float64 { return &k }

// BuiltinTimbres returns the harmonic tables shipped with the binary.
func BuiltinTimbres() map[string]TimbreConfig {
	return map[string]TimbreConfig{
		// Damped plucked string on C3.
		"guitar": {
			Partials: []PartialConfig{
				{130.81, 0.7},
				{261.63, 0.53},
				{392.0, 0.3},
				{523.25, 0.053},
				{653.16, 0.03},
				{785.14, 0.012},
				{916.22, 0.037},
			},
			Divisor: 5.55,
			Decay:   decay(2),
		},
		// A minor triad with four rows of overtones.
		"chord": {
			Partials: []PartialConfig{
				{220.0, 1}, {261.63, 1}, {329.63, 1},
				{440.0, 0.5}, {523.25, 0.5}, {659.25, 0.5},
				{660.0, 0.25}, {784.89, 0.25}, {988.89, 0.25},
				{880.0, 0.15}, {1046.50, 0.15}, {1318.51, 0.15},
				{1100.0, 0.1}, {1308.15, 0.1}, {1648.15, 0.1},
			},
			Divisor: 5.55,
			Decay:   decay(2),
		},
		"sine": {
			Partials: []PartialConfig{{110, 1}},
			Divisor:  1,
		},
	}
}

// BuiltinPatches returns the synthesis pipelines shipped with the binary.
func BuiltinPatches() map[string]PatchConfig {
	return map[string]PatchConfig{
		"bessel": {
			Timbre:  "guitar",
			Carrier: &CarrierConfig{Order: 1, Terms: 100, TimeScale: 30},
			Combine: "product",
			Output:  "bessel.wav",
		},
		"guitar": {Timbre: "guitar", Output: "guitar.wav"},
		"sound":  {Timbre: "chord", Output: "sound.wav"},
		"sine":   {Timbre: "sine", Output: "sine.wav"},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		OutputDir: DefaultOutputDir,
		Audio: AudioConfig{
			SampleRate:      DefaultSampleRate,
			BitDepth:        DefaultBitDepth,
			Duration:        DefaultDuration,
			FramesPerBuffer: DefaultFramesPerBuffer,
			OutputDevice:    DefaultDeviceID,
		},
		Timbres: BuiltinTimbres(),
		Patches: BuiltinPatches(),
		Analysis: AnalysisConfig{
			Value:  "imag",
			Window: "none",
		},
		Transport: TransportConfig{
			Addr: DefaultTransportAddr,
		},
	}
}
