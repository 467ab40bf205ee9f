// SPDX-License-Identifier: MIT
//
// Package harmony identifies musical notes and chords from frequency
// snapshots or MIDI-derived note sets, and suggests follow-up chords.
package harmony

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ReferenceA4 anchors the equal-tempered pitch table.
const ReferenceA4 = 440.0

// midiA4 is the MIDI key number of the reference pitch.
const midiA4 = 69

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the name of a pitch class (0=C .. 11=B). Values
// outside 0-11 are reduced mod 12.
func PitchClassName(pc int) string {
	pc %= 12
	if pc < 0 {
		pc += 12
	}
	return pitchClassNames[pc]
}

// Note is one sounding fundamental: a pitch class plus its octave.
type Note struct {
	PitchClass int // 0=C .. 11=B
	Octave     int // Scientific pitch notation; octave 4 holds A4.
}

// NoteFromMIDI converts a MIDI key number to a Note (key 69 = A4).
func NoteFromMIDI(key int) Note {
	pc := key % 12
	if pc < 0 {
		pc += 12
	}
	return Note{PitchClass: pc, Octave: key/12 - 1}
}

// MIDI returns the note's MIDI key number.
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + n.PitchClass
}

// Name returns the note in scientific pitch notation, e.g. "A4".
func (n Note) Name() string {
	return PitchClassName(n.PitchClass) + strconv.Itoa(n.Octave)
}

// UniquePitchClasses collapses a note set to its sorted unique pitch
// classes, the form chord matching works on.
func UniquePitchClasses(notes []Note) []int {
	var seen [12]bool
	for _, n := range notes {
		pc := n.PitchClass % 12
		if pc < 0 {
			pc += 12
		}
		seen[pc] = true
	}
	classes := make([]int, 0, 12)
	for pc := 0; pc < 12; pc++ {
		if seen[pc] {
			classes = append(classes, pc)
		}
	}
	return classes
}

// PitchClassExtractor maps spectral peaks to equal-tempered notes. A peak is
// a strict local magnitude maximum above the amplitude threshold; its bin is
// converted back to a frequency, then to the nearest semitone. Peaks whose
// pitch confidence (how close the frequency sits to an exact semitone) falls
// below the confidence threshold are discarded.
type PitchClassExtractor struct {
	sampleRate          float64
	amplitudeThreshold  float64
	confidenceThreshold float64
}

// NewPitchClassExtractor creates an extractor for snapshots captured at the
// given sample rate.
func NewPitchClassExtractor(sampleRate, amplitudeThreshold, confidenceThreshold float64) (*PitchClassExtractor, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if confidenceThreshold < 0 || confidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold must be in [0, 1], got %f", confidenceThreshold)
	}
	return &PitchClassExtractor{
		sampleRate:          sampleRate,
		amplitudeThreshold:  amplitudeThreshold,
		confidenceThreshold: confidenceThreshold,
	}, nil
}

// Extract returns the notes sounding in a frequency snapshot, sorted by
// ascending pitch with duplicates removed. Multiple octaves of the same
// pitch class are retained here; chord matching collapses them later.
func (e *PitchClassExtractor) Extract(snapshot []float64) []Note {
	n := len(snapshot)
	if n < 3 {
		return nil
	}
	nyquist := e.sampleRate / 2

	var notes []Note
	seen := make(map[Note]bool)

	for i := 1; i < n-1; i++ {
		mag := snapshot[i]
		if mag <= e.amplitudeThreshold || math.IsNaN(mag) {
			continue
		}
		if mag <= snapshot[i-1] || mag <= snapshot[i+1] {
			continue
		}

		freq := float64(i) / float64(n) * nyquist
		note, confidence, ok := noteFromFrequency(freq)
		if !ok || confidence < e.confidenceThreshold {
			continue
		}
		if !seen[note] {
			seen[note] = true
			notes = append(notes, note)
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].MIDI() < notes[j].MIDI()
	})
	return notes
}

// noteFromFrequency maps a frequency to the nearest equal-tempered note and
// a confidence in [0, 1] describing how close the frequency is to the exact
// semitone. A frequency exactly between two semitones resolves to the lower
// one. Frequencies outside the MIDI key range report ok=false.
func noteFromFrequency(freq float64) (Note, float64, bool) {
	if freq <= 0 {
		return Note{}, 0, false
	}
	exact := float64(midiA4) + 12*math.Log2(freq/ReferenceA4)

	// Nearest semitone, ties toward the lower pitch.
	key := int(math.Ceil(exact - 0.5))
	if key < 0 || key > 127 {
		return Note{}, 0, false
	}

	deviation := math.Abs(exact - float64(key)) // semitones, at most 0.5
	confidence := 1 - 2*deviation
	return NoteFromMIDI(key), confidence, true
}
