// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"earshot/internal/analysis"
	"earshot/internal/engine"
	applog "earshot/internal/log"
	"earshot/internal/transport"
	"earshot/internal/wavein"
)

var (
	flagRealtime bool
	flagKick     string
	flagSnare    string
	flagHihat    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>",
	Short: "Detect beats, notes and chords in a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(args[0])
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagRealtime, "realtime", false,
		"Pace the analysis at playback speed (useful with the ws transport)")
	analyzeCmd.Flags().StringVar(&flagKick, "kick", "",
		"Kick band as low:high:threshold, e.g. 20:150:1.3")
	analyzeCmd.Flags().StringVar(&flagSnare, "snare", "",
		"Snare band as low:high:threshold, e.g. 200:2000:1.25")
	analyzeCmd.Flags().StringVar(&flagHihat, "hihat", "",
		"Hi-hat band as low:high:threshold, e.g. 6000:16000:1.15")
	rootCmd.AddCommand(analyzeCmd)
}

var (
	kickColor  = color.New(color.FgRed, color.Bold)
	snareColor = color.New(color.FgYellow)
	hihatColor = color.New(color.FgCyan)
	chordColor = color.New(color.FgGreen, color.Bold)
	dimColor   = color.New(color.Faint)
)

func bandColor(band analysis.Band) *color.Color {
	switch band {
	case analysis.BandKick:
		return kickColor
	case analysis.BandSnare:
		return snareColor
	default:
		return hihatColor
	}
}

func runAnalyze(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reader, err := wavein.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	// The file's own rate wins over the configured fallback.
	cfg.Analysis.SampleRate = float64(reader.SampleRate())

	out, err := transport.New(cfg.Transport)
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg, out)
	if err != nil {
		out.Close()
		return err
	}
	defer eng.Close()

	if err := applyBandFlags(eng); err != nil {
		return err
	}

	applog.Infof("Analyzing %s (%d Hz, %d samples per tick)",
		path, reader.SampleRate(), cfg.Analysis.FramesPerBuffer)

	frame := make([]int32, cfg.Analysis.FramesPerBuffer)
	tick := time.Duration(float64(cfg.Analysis.FramesPerBuffer) /
		cfg.Analysis.SampleRate * float64(time.Second))

	// Offline analysis runs on file time, not wall time, so cooldowns and
	// event offsets line up with the audio regardless of processing speed.
	base := time.Unix(0, 0)
	pos := time.Duration(0)

	for {
		_, err := reader.ReadFrame(frame)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		result := eng.ProcessFrame(frame, base.Add(pos))
		printFrameResult(pos, result)

		pos += tick
		if flagRealtime {
			time.Sleep(tick)
		}
	}
	return nil
}

// applyBandFlags pushes any low:high:threshold overrides from the command
// line into the running detector.
func applyBandFlags(eng *engine.Engine) error {
	flags := map[analysis.Band]string{
		analysis.BandKick:  flagKick,
		analysis.BandSnare: flagSnare,
		analysis.BandHihat: flagHihat,
	}
	for band, raw := range flags {
		if raw == "" {
			continue
		}
		def, err := parseBandDefinition(raw)
		if err != nil {
			return fmt.Errorf("invalid --%s value %q: %w", band, raw, err)
		}
		eng.SetBand(band, def)
	}
	return nil
}

func parseBandDefinition(raw string) (analysis.BandDefinition, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return analysis.BandDefinition{}, errors.New("want low:high:threshold")
	}
	var def analysis.BandDefinition
	var err error
	if def.LowHz, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return analysis.BandDefinition{}, err
	}
	if def.HighHz, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return analysis.BandDefinition{}, err
	}
	if def.Threshold, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return analysis.BandDefinition{}, err
	}
	return def, nil
}

func printFrameResult(pos time.Duration, result engine.FrameResult) {
	stamp := dimColor.Sprintf("%8.2fs", pos.Seconds())

	for _, band := range result.Beats {
		fmt.Printf("%s  %s\n", stamp, bandColor(band).Sprintf("▮ %s", band))
	}
	if result.Chord != nil {
		fmt.Printf("%s  %s  %s\n",
			stamp,
			chordColor.Sprintf("%s (%.0f%%)", result.Chord.Chord, result.Chord.Confidence),
			dimColor.Sprint(strings.Join(result.Chord.Notes, " ")))
		for _, s := range result.Chord.Suggestions {
			fmt.Printf("%s    try %s %s\n",
				stamp, chordColor.Sprint(s.Chord), dimColor.Sprintf("(%s)", s.Feeling))
		}
	}
}
