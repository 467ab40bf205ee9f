// SPDX-License-Identifier: MIT
//
// Package engine drives the analysis pipeline: PCM frames go in, beat and
// chord events come out through a transport. The engine itself is
// source-agnostic; WAV playback and MIDI timelines both feed it.
package engine

import (
	"fmt"
	"time"

	"earshot/internal/analysis"
	"earshot/internal/config"
	"earshot/internal/harmony"
	applog "earshot/internal/log"
	"earshot/internal/transport"
)

// BeatEvent is emitted once per detected onset.
type BeatEvent struct {
	Type string  `json:"type"` // Always "beat".
	Band string  `json:"band"`
	AtMs float64 `json:"at_ms"`
}

// ChordEvent is emitted when the identified chord changes.
type ChordEvent struct {
	Type        string       `json:"type"` // Always "chord".
	Chord       string       `json:"chord"`
	Confidence  float64      `json:"confidence"`
	Notes       []string     `json:"notes"`
	Suggestions []Suggestion `json:"suggestions"`
	AtMs        float64      `json:"at_ms"`
}

// Suggestion is the wire form of a follow-up chord recommendation.
type Suggestion struct {
	Chord   string `json:"chord"`
	Feeling string `json:"feeling"`
}

// FrameResult summarizes one analysis tick for the caller. Chord carries a
// value only on the tick the chord changed.
type FrameResult struct {
	Beats []analysis.Band
	Notes []harmony.Note
	Chord *ChordEvent
}

// Engine owns the spectral front-end and the detectors, and publishes
// events through its transport. Not safe for concurrent use; drive it from
// a single goroutine.
type Engine struct {
	fft       *analysis.FFTProcessor
	beats     *analysis.BeatDetector
	extractor *harmony.PitchClassExtractor
	chords    *harmony.Identifier
	suggester *harmony.SuggestionEngine
	out       transport.Transport

	snapshot  []float64 // Reused across ticks.
	lastChord string
	start     time.Time
}

// New builds an engine from the config. The transport is owned by the
// engine from here on and is closed by Close.
func New(cfg *config.Config, out transport.Transport) (*Engine, error) {
	windowType, err := analysis.ParseWindowFunc(cfg.Analysis.FFTWindow)
	if err != nil {
		return nil, err
	}
	fft, err := analysis.NewFFTProcessor(cfg.Analysis.FFTSize, cfg.Analysis.SampleRate, windowType)
	if err != nil {
		return nil, fmt.Errorf("failed to create fft processor: %w", err)
	}
	beats, err := analysis.NewBeatDetector(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to create beat detector: %w", err)
	}
	extractor, err := harmony.NewPitchClassExtractor(
		cfg.Analysis.SampleRate,
		cfg.Harmony.AmplitudeThreshold,
		cfg.Harmony.ConfidenceThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch extractor: %w", err)
	}

	return &Engine{
		fft:       fft,
		beats:     beats,
		extractor: extractor,
		chords:    harmony.NewIdentifier(),
		suggester: harmony.NewSuggestionEngine(),
		out:       out,
		snapshot:  make([]float64, cfg.Analysis.FFTSize/2+1),
	}, nil
}

// ProcessFrame runs one analysis tick over a PCM frame. The returned result
// mirrors what was sent on the transport.
func (e *Engine) ProcessFrame(buffer []int32, now time.Time) FrameResult {
	if e.start.IsZero() {
		e.start = now
	}
	atMs := float64(now.Sub(e.start)) / float64(time.Millisecond)

	e.fft.Process(buffer)
	if err := e.fft.GetMagnitudesInto(e.snapshot); err != nil {
		applog.Errorf("Engine: failed to fetch magnitudes: %v", err)
		return FrameResult{}
	}

	var result FrameResult

	result.Beats = e.beats.Process(e.snapshot, now)
	for _, band := range result.Beats {
		e.send(BeatEvent{Type: "beat", Band: band.String(), AtMs: atMs})
	}

	result.Notes = e.extractor.Extract(e.snapshot)
	chord, ok := e.chords.Identify(result.Notes)
	switch {
	case ok && chord.Name != e.lastChord:
		e.lastChord = chord.Name
		event := e.chordEvent(chord, result.Notes, atMs)
		result.Chord = &event
		e.send(event)
	case !ok && len(result.Notes) == 0:
		// Silence ends the current chord, so its return fires a new event.
		e.lastChord = ""
	}

	return result
}

// AnalyzeNotes identifies a chord for an externally supplied note set, such
// as one instant of a MIDI timeline, and publishes the event on change.
func (e *Engine) AnalyzeNotes(notes []harmony.Note, at time.Duration) *ChordEvent {
	atMs := float64(at) / float64(time.Millisecond)

	chord, ok := e.chords.Identify(notes)
	if !ok {
		if len(notes) == 0 {
			e.lastChord = ""
		}
		return nil
	}
	if chord.Name == e.lastChord {
		return nil
	}
	e.lastChord = chord.Name
	event := e.chordEvent(chord, notes, atMs)
	e.send(event)
	return &event
}

func (e *Engine) chordEvent(chord harmony.Chord, notes []harmony.Note, atMs float64) ChordEvent {
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = n.Name()
	}
	suggestions := e.suggester.Suggest(chord)
	wire := make([]Suggestion, len(suggestions))
	for i, s := range suggestions {
		wire[i] = Suggestion{Chord: s.ChordName, Feeling: s.Feeling}
	}
	return ChordEvent{
		Type:        "chord",
		Chord:       chord.Name,
		Confidence:  chord.Confidence,
		Notes:       names,
		Suggestions: wire,
		AtMs:        atMs,
	}
}

// send publishes fire-and-forget; transport failures are logged, never
// propagated into the analysis loop.
func (e *Engine) send(event any) {
	if e.out == nil {
		return
	}
	if err := e.out.Send(event); err != nil {
		applog.Warnf("Engine: transport send failed: %v", err)
	}
}

// SetBand forwards a band redefinition to the beat detector.
func (e *Engine) SetBand(band analysis.Band, def analysis.BandDefinition) {
	e.beats.SetBand(band, def)
}

// Reset clears detector state so the engine can start a new stream.
func (e *Engine) Reset() {
	e.beats.Reset()
	e.lastChord = ""
	e.start = time.Time{}
}

// Close shuts down the transport.
func (e *Engine) Close() error {
	if e.out == nil {
		return nil
	}
	return e.out.Close()
}
