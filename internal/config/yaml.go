// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"timbre/internal/analysis"
	applog "timbre/internal/log"
	"timbre/internal/pcm"
	"timbre/internal/synth"
)

// ErrUnknownPatch is returned when a patch name is not configured.
var ErrUnknownPatch = errors.New("unknown patch")

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it looks for DefaultFileName in the working directory. If no file is found, it uses
// built-in defaults. Timbres and patches from the file are merged over the built-ins.
// After loading, it applies environment variable overrides and validates the final
// configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err == nil {
			path = DefaultFileName
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		applog.Debugf("configuration: loaded %s", path)
	}

	// Apply environment variable overrides AFTER loading from file.
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides reads the TIMBRE_* variables. Malformed numbers are
// errors rather than silently ignored.
func (cfg *Config) applyEnvOverrides() error {
	if val, ok := os.LookupEnv("TIMBRE_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Debugf("configuration: overriding log_level from env: %s", val)
	}

	if val, ok := os.LookupEnv("TIMBRE_SAMPLE_RATE"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("TIMBRE_SAMPLE_RATE: %w", err)
		}
		cfg.Audio.SampleRate = n
		applog.Debugf("configuration: overriding audio.sample_rate from env: %d", n)
	}

	if val, ok := os.LookupEnv("TIMBRE_BIT_DEPTH"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("TIMBRE_BIT_DEPTH: %w", err)
		}
		cfg.Audio.BitDepth = n
		applog.Debugf("configuration: overriding audio.bit_depth from env: %d", n)
	}

	if val, ok := os.LookupEnv("TIMBRE_OUTPUT_DIR"); ok {
		cfg.OutputDir = val
		applog.Debugf("configuration: overriding output_dir from env: %s", val)
	}

	return nil
}

// Validate checks the configuration as a whole. Patches are checked in name
// order so the first reported problem is stable.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level '%s' is not one of debug, info, warn, error, fatal", c.LogLevel)
	}
	if err := c.Audio.Validate(); err != nil {
		return err
	}

	for _, name := range sortedKeys(c.Timbres) {
		if err := c.Timbres[name].Validate(); err != nil {
			return fmt.Errorf("timbre %s: %w", name, err)
		}
	}
	for _, name := range sortedKeys(c.Patches) {
		p := c.Patches[name]
		if _, ok := c.Timbres[p.Timbre]; !ok {
			return fmt.Errorf("patch %s: unknown timbre '%s'", name, p.Timbre)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("patch %s: %w", name, err)
		}
	}

	if c.Analysis.TransformLength < 0 {
		return fmt.Errorf("analysis.transform_length must not be negative, got %d", c.Analysis.TransformLength)
	}
	if _, err := analysis.ParseValueKind(c.Analysis.Value); err != nil {
		return fmt.Errorf("analysis.value: %w", err)
	}
	if _, err := analysis.ParseWindowFunc(c.Analysis.Window); err != nil {
		return fmt.Errorf("analysis.window: %w", err)
	}
	return nil
}

// Validate checks the render and playback settings.
func (a AudioConfig) Validate() error {
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %d outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !pcm.IsSupported(a.BitDepth) {
		return fmt.Errorf("audio.bit_depth: %w: %d", pcm.ErrUnsupportedBitDepth, a.BitDepth)
	}
	if a.Duration <= 0 {
		return fmt.Errorf("audio.duration must be positive, got %s", a.Duration)
	}
	if a.FramesPerBuffer < 0 || a.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside [0, %d]", a.FramesPerBuffer, MaxBufferFrames)
	}
	return nil
}

// Validate checks a harmonic table.
func (t TimbreConfig) Validate() error {
	if len(t.Partials) == 0 {
		return errors.New("no partials")
	}
	if t.Divisor < 0 {
		return fmt.Errorf("divisor must not be negative, got %g", t.Divisor)
	}
	if t.Decay != nil && *t.Decay < 0 {
		return fmt.Errorf("decay must not be negative, got %g", *t.Decay)
	}
	return nil
}

// Validate checks a patch on its own; the timbre reference is checked by
// Config.Validate.
func (p PatchConfig) Validate() error {
	if p.Carrier != nil && (p.Carrier.Terms < 1 || p.Carrier.Terms > MaxSeriesTerms) {
		return fmt.Errorf("carrier terms %d outside [1, %d]", p.Carrier.Terms, MaxSeriesTerms)
	}

	clip := p.ClipRange()
	if !(clip.Low < clip.High) {
		return fmt.Errorf("clip low %g must be below high %g", clip.Low, clip.High)
	}

	op, err := synth.ParseCombineOp(p.Combine)
	if err != nil {
		return err
	}
	if op == synth.WeightedSum && len(p.Weights) != p.Sources() {
		return fmt.Errorf("weighted_sum needs %d weights, got %d", p.Sources(), len(p.Weights))
	}
	return nil
}

// Sources returns the number of signals the patch combines.
func (p PatchConfig) Sources() int {
	if p.Carrier != nil {
		return 2
	}
	return 1
}

// ClipRange returns the patch clip bounds or DefaultClip.
func (p PatchConfig) ClipRange() ClipConfig {
	if p.Clip == nil {
		return DefaultClip
	}
	return *p.Clip
}

// Patch returns the named patch and the timbre it references.
func (c *Config) Patch(name string) (PatchConfig, TimbreConfig, error) {
	p, ok := c.Patches[name]
	if !ok {
		return PatchConfig{}, TimbreConfig{}, fmt.Errorf("%w: '%s' (available: %v)", ErrUnknownPatch, name, c.PatchNames())
	}
	t, ok := c.Timbres[p.Timbre]
	if !ok {
		return PatchConfig{}, TimbreConfig{}, fmt.Errorf("patch %s: unknown timbre '%s'", name, p.Timbre)
	}
	return p, t, nil
}

// PatchNames returns the configured patch names in order.
func (c *Config) PatchNames() []string {
	return sortedKeys(c.Patches)
}

// TimbreNames returns the configured timbre names in order.
func (c *Config) TimbreNames() []string {
	return sortedKeys(c.Timbres)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
