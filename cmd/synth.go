// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timbre/internal/audio"
	"timbre/internal/config"
	applog "timbre/internal/log"
	"timbre/internal/synth"
)

// renderFlags are shared by synth and sine.
type renderFlags struct {
	duration   time.Duration
	sampleRate int
	bitDepth   int
	output     string
	decay      float64
	noEnvelope bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 0,
		"Length of the render (e.g. 1s, 250ms). Defaults to audio.duration")
	cmd.Flags().IntVarP(&f.sampleRate, "sample-rate", "s", 0,
		"Sample rate, measured in Hertz (Hz). Defaults to audio.sample_rate")
	cmd.Flags().IntVarP(&f.bitDepth, "bit-depth", "b", 0,
		"PCM bit depth (8, 16, 24 or 32). Defaults to audio.bit_depth")
	cmd.Flags().StringVarP(&f.output, "output", "o", "",
		"Output WAV file. Defaults to the patch's output inside output_dir")
	cmd.Flags().Float64Var(&f.decay, "decay", 0,
		"Envelope decay constant k in exp(-k t), replacing the timbre's")
	cmd.Flags().BoolVar(&f.noEnvelope, "no-envelope", false,
		"Disable the timbre's decay envelope")
}

// apply overrides the audio settings and the timbre envelope.
func (f *renderFlags) apply(cmd *cobra.Command, a config.AudioConfig, t *config.TimbreConfig) (config.AudioConfig, error) {
	if cmd.Flags().Changed("duration") {
		a.Duration = f.duration
	}
	if cmd.Flags().Changed("sample-rate") {
		a.SampleRate = f.sampleRate
	}
	if cmd.Flags().Changed("bit-depth") {
		a.BitDepth = f.bitDepth
	}
	if cmd.Flags().Changed("decay") {
		k := f.decay
		t.Decay = &k
	}
	if f.noEnvelope {
		t.Decay = nil
	}
	return a, a.Validate()
}

// carrierFlags override or add the series carrier of a patch.
type carrierFlags struct {
	order     float64
	terms     int
	timeScale float64
	divisor   float64
	partials  []string
}

func newSynthCommand(a *app) *cobra.Command {
	var (
		rf renderFlags
		cf carrierFlags
	)
	cmd := &cobra.Command{
		Use:   "synth [patch]",
		Short: "Render a configured patch to a WAV file",
		Long: "Render a configured patch to a WAV file. Without a patch name the " +
			config.DefaultPatch + " patch is rendered. Use 'patches' to list them.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := config.DefaultPatch
			if len(args) == 1 {
				name = args[0]
			}
			p, t, err := a.cfg.Patch(name)
			if err != nil {
				return err
			}
			if err := cf.apply(cmd, &p, &t); err != nil {
				return err
			}
			audioCfg, err := rf.apply(cmd, a.cfg.Audio, &t)
			if err != nil {
				return err
			}

			path := rf.output
			if path == "" {
				path = a.cfg.OutputPath(name, p)
			}
			return a.render(cmd, name, p, t, audioCfg, path)
		},
	}

	rf.register(cmd)
	cmd.Flags().Float64Var(&cf.order, "order", 1, "Carrier series order a")
	cmd.Flags().IntVar(&cf.terms, "terms", 100, "Carrier series truncation bound M (1 to 170)")
	cmd.Flags().Float64Var(&cf.timeScale, "time-scale", 30, "Carrier argument scale, x = time-scale * t")
	cmd.Flags().Float64Var(&cf.divisor, "divisor", 0, "Fixed normalization divisor of the timbre")
	cmd.Flags().StringArrayVarP(&cf.partials, "partial", "p", nil,
		"Harmonic term as frequency:weight, repeatable. Replaces the timbre table")
	return cmd
}

// apply copies the patch carrier before changing it, so the configured patch
// is never mutated. Setting any carrier flag on a patch without a carrier
// adds one.
func (f *carrierFlags) apply(cmd *cobra.Command, p *config.PatchConfig, t *config.TimbreConfig) error {
	flags := cmd.Flags()
	if flags.Changed("order") || flags.Changed("terms") || flags.Changed("time-scale") {
		c := config.CarrierConfig{Order: f.order, Terms: f.terms, TimeScale: f.timeScale}
		if p.Carrier != nil {
			c = *p.Carrier
		}
		if flags.Changed("order") {
			c.Order = f.order
		}
		if flags.Changed("terms") {
			c.Terms = f.terms
		}
		if flags.Changed("time-scale") {
			c.TimeScale = f.timeScale
		}
		p.Carrier = &c
	}
	if flags.Changed("divisor") {
		t.Divisor = f.divisor
	}
	if len(f.partials) > 0 {
		partials, err := parsePartials(f.partials)
		if err != nil {
			return err
		}
		t.Partials = partials
	}
	return nil
}

// parsePartials parses frequency:weight pairs.
func parsePartials(specs []string) ([]config.PartialConfig, error) {
	partials := make([]config.PartialConfig, 0, len(specs))
	for _, spec := range specs {
		freq, weight, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("partial '%s' is not frequency:weight", spec)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(freq), 64)
		if err != nil {
			return nil, fmt.Errorf("partial '%s' frequency: %w", spec, err)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
		if err != nil {
			return nil, fmt.Errorf("partial '%s' weight: %w", spec, err)
		}
		partials = append(partials, config.PartialConfig{Frequency: f, Weight: w})
	}
	return partials, nil
}

func newSineCommand(a *app) *cobra.Command {
	var (
		rf        renderFlags
		frequency float64
		amplitude float64
	)
	cmd := &cobra.Command{
		Use:   "sine",
		Short: "Render a pure sine tone to a WAV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if amplitude < 0 || amplitude > 1 {
				return fmt.Errorf("amplitude %g outside [0, 1]", amplitude)
			}
			p := config.PatchConfig{Timbre: "sine", Output: "sine.wav"}
			t := config.TimbreConfig{
				Partials: []config.PartialConfig{{Frequency: frequency, Weight: amplitude}},
				Divisor:  1,
			}
			audioCfg, err := rf.apply(cmd, a.cfg.Audio, &t)
			if err != nil {
				return err
			}

			path := rf.output
			if path == "" {
				path = a.cfg.OutputPath("sine", p)
			}
			return a.render(cmd, "sine", p, t, audioCfg, path)
		},
	}
	rf.register(cmd)
	cmd.Flags().Float64VarP(&frequency, "frequency", "f", 110, "Tone frequency in Hz")
	cmd.Flags().Float64VarP(&amplitude, "amplitude", "a", 1, "Peak amplitude in [0, 1]")
	return cmd
}

// render runs one synthesis pipeline into a WAV file at path. The renderer is
// built before the file is created, so an invalid voice leaves no file.
func (a *app) render(cmd *cobra.Command, name string, p config.PatchConfig, t config.TimbreConfig,
	audioCfg config.AudioConfig, path string) (err error) {
	start := time.Now()
	defer func() { a.metrics.RecordRender(name, time.Since(start), err) }()

	voice, err := config.Voice(p, t)
	if err != nil {
		return fmt.Errorf("patch %s: %w", name, err)
	}

	observers := synth.Observers{a.metrics.Observer(name)}
	if applog.GetLevel() == applog.LevelDebug {
		observers = append(observers, synth.DebugObserver{})
	}

	r, err := synth.NewRenderer(voice, synth.Options{
		SampleRate: audioCfg.SampleRate,
		BitDepth:   audioCfg.BitDepth,
		Samples:    synth.SampleCount(audioCfg.Duration, audioCfg.SampleRate),
		Observer:   observers,
	})
	if err != nil {
		return err
	}

	w, err := audio.Create(path, audio.Format{SampleRate: audioCfg.SampleRate, BitDepth: audioCfg.BitDepth}, 0)
	if err != nil {
		return err
	}

	stats, err := r.Render(w)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return &synth.StageError{Stage: synth.StageClose, Index: stats.Samples, Err: err}
	}

	applog.Infof("synth: %s: %d samples, peak %.4f, %d clipped, %d non-finite",
		name, stats.Samples, stats.Peak, stats.Clipped, stats.NonFinite)
	if stats.NonFinite > 0 {
		applog.Warnf("synth: %s produced %d non-finite samples, written as silence", name, stats.NonFinite)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d samples (%d Hz, %d-bit) to %s\n",
		stats.Samples, audioCfg.SampleRate, audioCfg.BitDepth, path)
	return nil
}
