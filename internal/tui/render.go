// SPDX-License-Identifier: MIT

// Package tui renders the listings printed by the command line.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"timbre/internal/analysis"
	"timbre/internal/config"
	"timbre/internal/playback"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8A8A8"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	blockStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)

// Patches lists every patch with its pipeline, then every timbre table.
func Patches(cfg *config.Config) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Patches"))
	sb.WriteString("\n\n")

	for _, name := range cfg.PatchNames() {
		p := cfg.Patches[name]
		sb.WriteString(highlightStyle.Render(name))
		sb.WriteString(infoStyle.Render(" -> " + cfg.OutputPath(name, p)))
		sb.WriteString("\n")
		sb.WriteString(blockStyle.Render(describePatch(p)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("Timbres"))
	sb.WriteString("\n\n")

	for _, name := range cfg.TimbreNames() {
		t := cfg.Timbres[name]
		sb.WriteString(highlightStyle.Render(name))
		sb.WriteString("\n")
		sb.WriteString(blockStyle.Render(describeTimbre(t)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func describePatch(p config.PatchConfig) string {
	var lines []string
	combine := p.Combine
	if combine == "" {
		combine = "product"
	}
	if p.Carrier != nil {
		lines = append(lines, fmt.Sprintf("carrier: order %g, %d terms, x = %g t",
			p.Carrier.Order, p.Carrier.Terms, p.Carrier.TimeScale))
		lines = append(lines, fmt.Sprintf("combine: %s with timbre %s", combine, p.Timbre))
	} else {
		lines = append(lines, fmt.Sprintf("timbre: %s", p.Timbre))
	}
	if len(p.Weights) > 0 {
		lines = append(lines, fmt.Sprintf("weights: %v", p.Weights))
	}
	clip := p.ClipRange()
	lines = append(lines, fmt.Sprintf("clip: [%g, %g]", clip.Low, clip.High))
	return strings.Join(lines, "\n")
}

func describeTimbre(t config.TimbreConfig) string {
	var lines []string
	header := fmt.Sprintf("%d partials", len(t.Partials))
	if t.Divisor != 0 && t.Divisor != 1 {
		header += fmt.Sprintf(", divisor %g", t.Divisor)
	}
	if t.Decay != nil {
		header += fmt.Sprintf(", envelope exp(-%g t)", *t.Decay)
	}
	lines = append(lines, header)
	for _, p := range t.Partials {
		lines = append(lines, fmt.Sprintf("%9.2f Hz  x %g", p.Frequency, p.Weight))
	}
	return strings.Join(lines, "\n")
}

// Devices lists PortAudio devices, highlighting the default output.
func Devices(devices []playback.Device) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Audio Device List"))
	sb.WriteString("\n\n")

	if len(devices) == 0 {
		sb.WriteString(infoStyle.Render("No audio devices found."))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, d := range devices {
		line := fmt.Sprintf("[%d] %s (%s)", d.ID, d.Name, d.Kind())
		if d.IsDefaultOutput {
			line = highlightStyle.Render(line + " *default output*")
		}
		sb.WriteString(line)
		sb.WriteString("\n")

		detail := fmt.Sprintf("Input channels: %d, Output channels: %d\nDefault sample rate: %.0f Hz",
			d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
		if d.HostAPI != "" {
			detail += "\nHost API: " + d.HostAPI
		}
		sb.WriteString(blockStyle.Render(infoStyle.Render(detail)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// SpectrumSummary describes an exported spectrum and its strongest bands.
func SpectrumSummary(s *analysis.Spectrum, peakBin int, path string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Spectrum"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("%d samples, K = %d, resolution %.4f Hz\n", s.Samples, s.Len(), s.Resolution()))
	sb.WriteString(highlightStyle.Render(fmt.Sprintf("peak: bin %d (%.2f Hz)", peakBin, s.Frequency(peakBin))))
	sb.WriteString("\n")

	var bands []string
	for _, e := range analysis.BandEnergies(s, analysis.DefaultBands(s.SampleRate)) {
		bands = append(bands, fmt.Sprintf("%-8s %12.4g", e.Band.Name, e.RMS))
	}
	sb.WriteString(blockStyle.Render(infoStyle.Render(strings.Join(bands, "\n"))))
	sb.WriteString("\n")
	if path != "" {
		sb.WriteString(infoStyle.Render("written to " + path))
		sb.WriteString("\n")
	}
	return sb.String()
}
