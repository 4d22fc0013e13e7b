// SPDX-License-Identifier: MIT

// Package cmd implements the timbre command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"timbre/internal/config"
	applog "timbre/internal/log"
	"timbre/internal/metrics"
	"timbre/pkg/build"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	verbose    bool

	cfg     *config.Config
	metrics *metrics.Metrics
}

// NewRootCommand builds the command tree. Each call returns an independent
// tree with its own configuration and metrics.
func NewRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	a := &app{metrics: metrics.New()}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Configuration file. Defaults to "+config.DefaultFileName+" in the working directory, if present")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level (debug, info, warn, error). Overrides the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Show verbose output, including every rendered sample")

	rootCmd.AddCommand(
		newSynthCommand(a),
		newSineCommand(a),
		newSpectrumCommand(a),
		newPlayCommand(a),
		newDevicesCommand(a),
		newPatchesCommand(a),
	)
	return rootCmd
}

// load reads the configuration and applies the logging flags.
func (a *app) load() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	if a.verbose {
		levelName = "debug"
	}
	level, ok := applog.ParseLevel(levelName)
	if !ok {
		return fmt.Errorf("invalid log level '%s'", levelName)
	}
	applog.SetLevel(level)
	return nil
}

// Execute runs the command line against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
