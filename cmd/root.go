// SPDX-License-Identifier: MIT
//
// Package cmd wires the command line interface. Each subcommand builds its
// pipeline from the shared config and runs it to completion.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"earshot/internal/config"
	applog "earshot/internal/log"
	"earshot/pkg/build"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagTransport string
	flagListen    string
	flagUDPTarget string
)

var rootCmd = &cobra.Command{
	Use:           build.GetInfo().Name,
	Short:         "Spectral beat detection and chord identification for audio and MIDI",
	Version:       build.GetInfo().Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Path to a YAML config file (default: earshot.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&flagTransport, "transport", "t", "",
		"Event transport: log, ws or udp")
	rootCmd.PersistentFlags().StringVar(&flagListen, "listen", "",
		"WebSocket listen address for the ws transport")
	rootCmd.PersistentFlags().StringVar(&flagUDPTarget, "udp", "",
		"Target address for the udp transport")
}

// loadConfig reads the config file and layers the command line flags on
// top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagTransport != "" {
		cfg.Transport.Mode = flagTransport
	}
	if flagListen != "" {
		cfg.Transport.WSListen = flagListen
	}
	if flagUDPTarget != "" {
		cfg.Transport.UDPTarget = flagUDPTarget
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	applog.SetLevel(level)
	return cfg, nil
}

// Execute runs the CLI. It is the only entry point main needs.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
