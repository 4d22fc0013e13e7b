// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"timbre/internal/analysis"
	"timbre/internal/audio"
	applog "timbre/internal/log"
	"timbre/internal/table"
	"timbre/internal/transport"
	"timbre/internal/tui"
	"timbre/pkg/bitint"
)

const shutdownTimeout = 5 * time.Second

type spectrumFlags struct {
	output  string
	size    int
	value   string
	window  string
	serve   string
	publish bool
}

func newSpectrumCommand(a *app) *cobra.Command {
	var f spectrumFlags
	cmd := &cobra.Command{
		Use:   "spectrum <input.wav>",
		Short: "Export the discrete Fourier transform of a WAV file as CSV",
		Long: "Export the discrete Fourier transform of a WAV file as a header-less CSV of " +
			"(bin index, value) rows, one per bin. The transform length defaults to the " +
			"next power of two holding every sample; shorter input is zero-padded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.spectrum(cmd, args[0], &f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output CSV file. Defaults to the input name with a .csv extension")
	cmd.Flags().IntVarP(&f.size, "size", "k", 0, "Transform length K, at least the sample count. Defaults to analysis.transform_length")
	cmd.Flags().StringVar(&f.value, "value", "", "Bin value to export: imag, real, magnitude or phase. Defaults to analysis.value")
	cmd.Flags().StringVar(&f.window, "window", "", "Window applied before the transform. Defaults to analysis.window")
	cmd.Flags().StringVar(&f.serve, "serve", "",
		"Publish the spectrum over WebSocket at /ws (and metrics at /metrics) on this address until interrupted")
	cmd.Flags().BoolVar(&f.publish, "publish", false,
		"Like --serve, on the address from transport.addr")
	return cmd
}

func (a *app) spectrum(cmd *cobra.Command, input string, f *spectrumFlags) error {
	cfg := a.cfg.Analysis
	if f.size != 0 {
		cfg.TransformLength = f.size
	}
	if f.value != "" {
		cfg.Value = f.value
	}
	if f.window != "" {
		cfg.Window = f.window
	}
	kind, err := analysis.ParseValueKind(cfg.Value)
	if err != nil {
		return err
	}
	window, err := analysis.ParseWindowFunc(cfg.Window)
	if err != nil {
		return err
	}

	samples, format, err := audio.ReadFile(input)
	if err != nil {
		return err
	}

	k := cfg.TransformLength
	if k == 0 {
		k = bitint.NextPowerOfTwo(len(samples))
	}
	analyzer, err := analysis.NewAnalyzer(k, window)
	if err != nil {
		return err
	}

	start := time.Now()
	bins, err := analyzer.Analyze(samples)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", input, err)
	}
	a.metrics.RecordSpectrum(k, time.Since(start))
	applog.Debugf("spectrum: %d samples, K=%d, window %s in %s", len(samples), k, window, time.Since(start))

	output := f.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".csv"
	}
	if err := table.WriteFile(output, bins, kind); err != nil {
		return err
	}

	s := &analysis.Spectrum{SampleRate: float64(format.SampleRate), Samples: len(samples), Bins: bins}
	frame := transport.NewFrame(s, kind)
	transport.NewLoggingTransport().Send(frame)
	io.WriteString(cmd.OutOrStdout(), tui.SpectrumSummary(s, frame.PeakBin, output))

	addr := f.serve
	if addr == "" && f.publish {
		addr = a.cfg.Transport.Addr
	}
	if addr == "" {
		return nil
	}
	return a.serve(cmd.Context(), addr, frame)
}

// serve publishes frame to WebSocket clients and exposes metrics until ctx
// is cancelled.
func (a *app) serve(ctx context.Context, addr string, frame *transport.Frame) error {
	wst := transport.NewWebSocketTransport()
	defer wst.Close()
	if err := wst.Send(frame); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", wst.Handler())

	servers := []*http.Server{{Addr: addr, Handler: mux}}
	if m := a.cfg.Transport.MetricsAddr; m != "" && m != addr {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", a.metrics.Handler())
		servers = append(servers, &http.Server{Addr: m, Handler: metricsMux})
	} else {
		mux.Handle("/metrics", a.metrics.Handler())
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			applog.Infof("transport: serving on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		applog.Info("transport: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				applog.Warnf("transport: shutting down %s: %v", srv.Addr, err)
			}
		}
		return nil
	})
	return g.Wait()
}
