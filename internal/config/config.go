// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"earshot/pkg/bitint"
)

// Defaults and limits for the analysis engine configuration.
const (
	DefaultSampleRate      = 44100.0
	DefaultFramesPerBuffer = 1024
	DefaultFFTSize         = 2048
	DefaultFFTWindow       = "hann"
	DefaultHistoryLength   = 40
	DefaultCooldown        = 100 * time.Millisecond

	DefaultAmplitudeThreshold  = 40.0
	DefaultConfidenceThreshold = 0.6

	MinSampleRate = 8000.0
	MaxSampleRate = 192000.0
	MaxFFTSize    = 16384
)

// Default band windows and sensitivity multipliers. The three percussive
// bands have spectral energy profiles that differ by an order of magnitude,
// which is why each carries its own threshold.
var (
	DefaultKickBand  = BandConfig{LowHz: 20, HighHz: 150, Threshold: 1.3}
	DefaultSnareBand = BandConfig{LowHz: 200, HighHz: 2000, Threshold: 1.25}
	DefaultHihatBand = BandConfig{LowHz: 6000, HighHz: 16000, Threshold: 1.15}
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// like "100ms" or "1.5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config is the root application configuration, loaded from YAML with
// environment variable overrides.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Harmony   HarmonyConfig   `yaml:"harmony"`
	Transport TransportConfig `yaml:"transport"`
}

// AnalysisConfig holds the spectral front-end and onset detection settings.
type AnalysisConfig struct {
	SampleRate      float64       `yaml:"sample_rate"`       // Fallback rate when the input source doesn't carry one.
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // Samples per analysis tick.
	FFTSize         int           `yaml:"fft_size"`          // FFT points (power of 2); input is zero-padded up to this.
	FFTWindow       string        `yaml:"fft_window"`        // Window function name (hann, hamming, blackman, ...).
	HistoryLength   int           `yaml:"history_length"`    // Rolling energy history per band, in ticks.
	Cooldown        Duration      `yaml:"cooldown"`          // Minimum time between onsets on the same band.
	Kick            BandConfig    `yaml:"kick"`
	Snare           BandConfig    `yaml:"snare"`
	Hihat           BandConfig    `yaml:"hihat"`
}

// BandConfig defines a frequency window of interest and its detection
// sensitivity multiplier.
type BandConfig struct {
	LowHz     float64 `yaml:"low_hz"`
	HighHz    float64 `yaml:"high_hz"`
	Threshold float64 `yaml:"threshold"`
}

// HarmonyConfig holds note and chord identification settings.
type HarmonyConfig struct {
	AmplitudeThreshold  float64 `yaml:"amplitude_threshold"`  // Minimum spectral peak magnitude to count as a note.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"` // Minimum pitch confidence (0-1) to keep a note.
}

// TransportConfig selects how detected events leave the engine.
type TransportConfig struct {
	Mode      string `yaml:"mode"`       // "log", "ws" or "udp".
	WSListen  string `yaml:"ws_listen"`  // WebSocket listen address (mode "ws").
	UDPTarget string `yaml:"udp_target"` // UDP target address (mode "udp").
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			FFTSize:         DefaultFFTSize,
			FFTWindow:       DefaultFFTWindow,
			HistoryLength:   DefaultHistoryLength,
			Cooldown:        Duration(DefaultCooldown),
			Kick:            DefaultKickBand,
			Snare:           DefaultSnareBand,
			Hihat:           DefaultHihatBand,
		},
		Harmony: HarmonyConfig{
			AmplitudeThreshold:  DefaultAmplitudeThreshold,
			ConfidenceThreshold: DefaultConfidenceThreshold,
		},
		Transport: TransportConfig{
			Mode:      "log",
			WSListen:  ":8080",
			UDPTarget: "127.0.0.1:9090",
		},
	}
}

// Validate checks constraints that would be programmer or operator errors.
// Band windows are NOT validated here: reversed or out-of-range windows are
// clamped at the point of use so the per-tick hot path stays fault-free.
func (c *Config) Validate() error {
	a := &c.Analysis
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("analysis.sample_rate %.1f outside [%.0f, %.0f]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(a.FFTSize) || a.FFTSize > MaxFFTSize {
		return fmt.Errorf("analysis.fft_size must be a power of 2 up to %d, got %d", MaxFFTSize, a.FFTSize)
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > a.FFTSize {
		return fmt.Errorf("analysis.frames_per_buffer must be in [1, fft_size], got %d", a.FramesPerBuffer)
	}
	if a.HistoryLength <= 0 {
		return fmt.Errorf("analysis.history_length must be positive, got %d", a.HistoryLength)
	}
	if a.Cooldown < 0 {
		return fmt.Errorf("analysis.cooldown must not be negative, got %s", a.Cooldown)
	}
	if c.Harmony.ConfidenceThreshold < 0 || c.Harmony.ConfidenceThreshold > 1 {
		return fmt.Errorf("harmony.confidence_threshold must be in [0, 1], got %.2f", c.Harmony.ConfidenceThreshold)
	}
	switch c.Transport.Mode {
	case "log", "ws", "udp":
	default:
		return fmt.Errorf("transport.mode must be log, ws or udp, got %q", c.Transport.Mode)
	}
	return nil
}
