// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"timbre/internal/audio"
	applog "timbre/internal/log"
	"timbre/internal/playback"
	"timbre/internal/tui"
)

func newPlayCommand(a *app) *cobra.Command {
	var (
		deviceID   int
		lowLatency bool
	)
	cmd := &cobra.Command{
		Use:   "play <input.wav>",
		Short: "Play a WAV file through an output device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, format, err := audio.ReadFile(args[0])
			if err != nil {
				return err
			}

			opts := playback.Options{
				DeviceID:        a.cfg.Audio.OutputDevice,
				FramesPerBuffer: a.cfg.Audio.FramesPerBuffer,
				LowLatency:      a.cfg.Audio.LowLatency || lowLatency,
			}
			if cmd.Flags().Changed("device") {
				opts.DeviceID = deviceID
			}

			if err := playback.Initialize(); err != nil {
				return err
			}
			defer func() {
				if err := playback.Terminate(); err != nil {
					applog.Warnf("playback: %v", err)
				}
			}()

			err = playback.Play(cmd.Context(), samples, format, opts)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&deviceID, "device", "d", playback.DefaultDeviceID,
		"Output device ID. Use 'devices' to see available devices, -1 for the default")
	cmd.Flags().BoolVarP(&lowLatency, "low-latency", "l", false,
		"Use low latency mode")
	return cmd
}

func newDevicesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := playback.Initialize(); err != nil {
				return err
			}
			defer playback.Terminate()

			devices, err := playback.HostDevices()
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), tui.Devices(devices))
			return err
		},
	}
}

func newPatchesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patches",
		Short: "List configured patches and timbres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), tui.Patches(a.cfg))
			return err
		},
	}
}
