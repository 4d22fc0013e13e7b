// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"timbre/internal/analysis"
	"timbre/internal/audio"
	"timbre/internal/config"
	"timbre/internal/pcm"
)

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}

func TestSynthGuitar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.wav")
	out, err := run(t, context.Background(), "synth", "guitar", "--duration", "100ms", "--output", path)
	if err != nil {
		t.Fatalf("synth error: %v", err)
	}
	if !strings.Contains(out, "wrote 4410 samples") {
		t.Errorf("output = %q", out)
	}

	samples, format, err := audio.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(samples) != 4410 || format != audio.DefaultFormat {
		t.Fatalf("got %d samples at %+v, want 4410 at %+v", len(samples), format, audio.DefaultFormat)
	}
	if samples[0] != 0 {
		t.Errorf("sample 0 = %d, want 0", samples[0])
	}

	// Sample 100 of the damped seven-partial table.
	tm := 100.0 / 44100
	var sum float64
	for _, p := range config.BuiltinTimbres()["guitar"].Partials {
		sum += p.Weight * math.Sin(2*math.Pi*p.Frequency*tm)
	}
	want, _ := pcm.Quantize(math.Exp(-2*tm)*sum/5.55, 16)
	if d := samples[100] - want; d < -1 || d > 1 {
		t.Errorf("sample 100 = %d, want %d", samples[100], want)
	}
}

func TestSynthDefaultPatchAtEightBits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.wav")
	if _, err := run(t, context.Background(), "synth", "-d", "10ms", "-b", "8", "-o", path); err != nil {
		t.Fatalf("synth error: %v", err)
	}
	samples, format, err := audio.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(samples) != 441 || format.BitDepth != 8 {
		t.Errorf("got %d samples at %d bits, want 441 at 8", len(samples), format.BitDepth)
	}
	for i, s := range samples {
		if s < -128 || s > 127 {
			t.Fatalf("sample %d = %d outside the 8-bit range", i, s)
		}
	}
}

func TestSynthErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		is   error
		msg  string
	}{
		{"unsupported bit depth", []string{"synth", "guitar", "--bit-depth", "12"}, pcm.ErrUnsupportedBitDepth, ""},
		{"unknown patch", []string{"synth", "theremin"}, config.ErrUnknownPatch, ""},
		{"too many terms", []string{"synth", "bessel", "--terms", "171"}, nil, "terms"},
		{"bad partial", []string{"synth", "guitar", "--partial", "440"}, nil, "frequency:weight"},
		{"bad amplitude", []string{"sine", "--amplitude", "2"}, nil, "amplitude"},
		{"zero duration", []string{"synth", "sine", "--duration", "0s"}, nil, "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".wav")
			_, err := run(t, context.Background(), append(tt.args, "--output", path)...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
			if tt.msg != "" && !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.msg)
			}
			if _, statErr := os.Stat(path); statErr == nil {
				t.Errorf("%s was created despite the error", path)
			}
		})
	}
}

func TestSineSpectrumPeak(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	csvPath := filepath.Join(dir, "tone.csv")

	if _, err := run(t, context.Background(), "sine", "--frequency", "100", "--amplitude", "0.5",
		"--duration", "100ms", "--output", wavPath); err != nil {
		t.Fatalf("sine error: %v", err)
	}

	out, err := run(t, context.Background(), "spectrum", wavPath, "--size", "4410", "--value", "magnitude", "--output", csvPath)
	if err != nil {
		t.Fatalf("spectrum error: %v", err)
	}
	if !strings.Contains(out, "peak: bin 10 (100.00 Hz)") {
		t.Errorf("summary = %q", out)
	}

	records := readCSV(t, csvPath)
	if len(records) != 4410 {
		t.Fatalf("got %d rows, want 4410", len(records))
	}
	peak, peakValue := 0, 0.0
	for i, r := range records[:len(records)/2] {
		v, err := strconv.ParseFloat(r[1], 64)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if v > peakValue {
			peak, peakValue = i, v
		}
	}
	if peak != 10 {
		t.Errorf("peak row = %d, want 10", peak)
	}
}

func TestSpectrumDefaults(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "guitar.wav")
	if _, err := run(t, context.Background(), "synth", "guitar", "-d", "100ms", "-o", wavPath); err != nil {
		t.Fatalf("synth error: %v", err)
	}
	if _, err := run(t, context.Background(), "spectrum", wavPath); err != nil {
		t.Fatalf("spectrum error: %v", err)
	}

	// Next power of two above 4410 samples, written beside the input.
	records := readCSV(t, filepath.Join(dir, "guitar.csv"))
	if len(records) != 8192 {
		t.Errorf("got %d rows, want 8192", len(records))
	}
	for i, r := range records[:4] {
		if r[0] != strconv.Itoa(i) {
			t.Errorf("row %d index = %s", i, r[0])
		}
	}
	// The DC bin of a real signal has no imaginary part.
	if v, _ := strconv.ParseFloat(records[0][1], 64); v != 0 {
		t.Errorf("imag(X[0]) = %v, want 0", v)
	}
}

func TestSpectrumErrors(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "s.wav")
	if _, err := run(t, context.Background(), "sine", "-d", "10ms", "-o", wavPath); err != nil {
		t.Fatalf("sine error: %v", err)
	}

	if _, err := run(t, context.Background(), "spectrum", wavPath, "--size", "10"); !errors.Is(err, analysis.ErrTransformTooShort) {
		t.Errorf("short transform error = %v, want ErrTransformTooShort", err)
	}
	if _, err := run(t, context.Background(), "spectrum", wavPath, "--value", "loudness"); err == nil {
		t.Error("expected error for unknown value kind")
	}
	if _, err := run(t, context.Background(), "spectrum", filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing input")
	}

	empty := filepath.Join(dir, "empty.wav")
	if _, err := run(t, context.Background(), "sine", "-d", "1ns", "-o", empty); err != nil {
		t.Fatalf("sine error: %v", err)
	}
	if _, err := run(t, context.Background(), "spectrum", empty); !errors.Is(err, analysis.ErrEmptyInput) {
		t.Errorf("empty input error = %v, want ErrEmptyInput", err)
	}
}

func TestSpectrumServeStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "s.wav")
	if _, err := run(t, context.Background(), "sine", "-d", "10ms", "-o", wavPath); err != nil {
		t.Fatalf("sine error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := run(t, ctx, "spectrum", wavPath, "--serve", "127.0.0.1:0")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after the context was cancelled")
	}
}

func TestConfigFilePatch(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "timbre.yaml")
	err := os.WriteFile(cfgPath, []byte(`
output_dir: `+dir+`
audio:
  duration: 20ms
  sample_rate: 8000
timbres:
  fifth:
    partials:
      - {frequency: 200, weight: 0.5}
      - {frequency: 300, weight: 0.5}
patches:
  fifth:
    timbre: fifth
    output: fifth.wav
`), 0644)
	if err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := run(t, context.Background(), "--config", cfgPath, "synth", "fifth"); err != nil {
		t.Fatalf("synth error: %v", err)
	}
	samples, format, err := audio.ReadFile(filepath.Join(dir, "fifth.wav"))
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if len(samples) != 160 || format.SampleRate != 8000 {
		t.Errorf("got %d samples at %d Hz, want 160 at 8000", len(samples), format.SampleRate)
	}

	out, err := run(t, context.Background(), "--config", cfgPath, "patches")
	if err != nil {
		t.Fatalf("patches error: %v", err)
	}
	for _, want := range []string{"fifth", "bessel", "2 partials"} {
		if !strings.Contains(out, want) {
			t.Errorf("patches output missing %q", want)
		}
	}
}

func TestParsePartials(t *testing.T) {
	tests := []struct {
		specs   []string
		want    []config.PartialConfig
		wantErr bool
	}{
		{[]string{"440:1"}, []config.PartialConfig{{Frequency: 440, Weight: 1}}, false},
		{[]string{"130.81:0.7", " 261.63 : 0.53 "}, []config.PartialConfig{{Frequency: 130.81, Weight: 0.7}, {Frequency: 261.63, Weight: 0.53}}, false},
		{[]string{"440"}, nil, true},
		{[]string{"a:1"}, nil, true},
		{[]string{"440:b"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.specs, ","), func(t *testing.T) {
			got, err := parsePartials(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePartials error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("partial %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, context.Background(), "--version")
	if err != nil {
		t.Fatalf("--version error: %v", err)
	}
	if !strings.Contains(out, "timbre") {
		t.Errorf("version output = %q", out)
	}
}
