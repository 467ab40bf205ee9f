// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"earshot/internal/config"
	"earshot/internal/engine"
	applog "earshot/internal/log"
	"earshot/internal/midiin"
	"earshot/internal/transport"
	"earshot/internal/wavein"
)

var chordsCmd = &cobra.Command{
	Use:   "chords <file.wav|file.mid>",
	Short: "Print the chord timeline of a WAV or MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChords(args[0])
	},
}

func init() {
	rootCmd.AddCommand(chordsCmd)
}

func runChords(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out, err := transport.New(cfg.Transport)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return chordsFromMIDI(cfg, out, path)
	default:
		return chordsFromWav(cfg, out, path)
	}
}

func chordsFromMIDI(cfg *config.Config, out transport.Transport, path string) error {
	changes, err := midiin.ReadFile(path)
	if err != nil {
		out.Close()
		return err
	}

	eng, err := engine.New(cfg, out)
	if err != nil {
		out.Close()
		return err
	}
	defer eng.Close()

	applog.Infof("Reading chords from %s (%d note changes)", path, len(changes))

	for _, change := range changes {
		if event := eng.AnalyzeNotes(change.Notes, change.At); event != nil {
			printChordEvent(change.At, event)
		}
	}
	return nil
}

func chordsFromWav(cfg *config.Config, out transport.Transport, path string) error {
	reader, err := wavein.Open(path)
	if err != nil {
		out.Close()
		return err
	}
	defer reader.Close()

	cfg.Analysis.SampleRate = float64(reader.SampleRate())

	eng, err := engine.New(cfg, out)
	if err != nil {
		out.Close()
		return err
	}
	defer eng.Close()

	frame := make([]int32, cfg.Analysis.FramesPerBuffer)
	tick := time.Duration(float64(cfg.Analysis.FramesPerBuffer) /
		cfg.Analysis.SampleRate * float64(time.Second))

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

		if result := eng.ProcessFrame(frame, base.Add(pos)); result.Chord != nil {
			printChordEvent(pos, result.Chord)
		}
		pos += tick
	}
	return nil
}

func printChordEvent(at time.Duration, event *engine.ChordEvent) {
	fmt.Printf("%s  %s  %s\n",
		dimColor.Sprintf("%8.2fs", at.Seconds()),
		chordColor.Sprintf("%s (%.0f%%)", event.Chord, event.Confidence),
		dimColor.Sprint(strings.Join(event.Notes, " ")))
	for _, s := range event.Suggestions {
		fmt.Printf("%s    try %s %s\n",
			dimColor.Sprintf("%8.2fs", at.Seconds()),
			chordColor.Sprint(s.Chord),
			dimColor.Sprintf("(%s)", s.Feeling))
	}
}
