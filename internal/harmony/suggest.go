// SPDX-License-Identifier: MIT
package harmony

// Suggestion is one recommended follow-up chord, with an optional short
// description of its feel for display.
type Suggestion struct {
	ChordName string
	Feeling   string
}

// progressionTable maps a chord display name to its curated follow-up
// chords. Loaded once at startup; read-only afterwards.
var progressionTable = map[string][]Suggestion{
	"C": {
		{ChordName: "F", Feeling: "warm lift"},
		{ChordName: "G", Feeling: "pulls home"},
		{ChordName: "Am", Feeling: "wistful"},
		{ChordName: "Dm", Feeling: "soft shadow"},
		{ChordName: "Em", Feeling: "drifting"},
	},
	"G": {
		{ChordName: "C", Feeling: "settles"},
		{ChordName: "D", Feeling: "bright push"},
		{ChordName: "Em", Feeling: "wistful"},
		{ChordName: "Am", Feeling: "soft shadow"},
		{ChordName: "Bm", Feeling: "drifting"},
	},
	"D": {
		{ChordName: "G", Feeling: "settles"},
		{ChordName: "A", Feeling: "bright push"},
		{ChordName: "Bm", Feeling: "wistful"},
		{ChordName: "Em", Feeling: "soft shadow"},
		{ChordName: "F#m", Feeling: "drifting"},
	},
	"A": {
		{ChordName: "D", Feeling: "settles"},
		{ChordName: "E", Feeling: "bright push"},
		{ChordName: "F#m", Feeling: "wistful"},
		{ChordName: "Bm", Feeling: "soft shadow"},
		{ChordName: "C#m", Feeling: "drifting"},
	},
	"E": {
		{ChordName: "A", Feeling: "settles"},
		{ChordName: "B", Feeling: "bright push"},
		{ChordName: "C#m", Feeling: "wistful"},
		{ChordName: "F#m", Feeling: "soft shadow"},
		{ChordName: "G#m", Feeling: "drifting"},
	},
	"F": {
		{ChordName: "A#", Feeling: "warm lift"},
		{ChordName: "C", Feeling: "pulls home"},
		{ChordName: "Dm", Feeling: "wistful"},
		{ChordName: "Gm", Feeling: "soft shadow"},
		{ChordName: "Am", Feeling: "drifting"},
	},
	"Am": {
		{ChordName: "Dm", Feeling: "deepens"},
		{ChordName: "E", Feeling: "tense pull"},
		{ChordName: "F", Feeling: "opens up"},
		{ChordName: "G", Feeling: "lifts away"},
		{ChordName: "C", Feeling: "relative major"},
	},
	"Em": {
		{ChordName: "Am", Feeling: "deepens"},
		{ChordName: "B", Feeling: "tense pull"},
		{ChordName: "C", Feeling: "opens up"},
		{ChordName: "D", Feeling: "lifts away"},
		{ChordName: "G", Feeling: "relative major"},
	},
	"Dm": {
		{ChordName: "Gm", Feeling: "deepens"},
		{ChordName: "A", Feeling: "tense pull"},
		{ChordName: "A#", Feeling: "opens up"},
		{ChordName: "C", Feeling: "lifts away"},
		{ChordName: "F", Feeling: "relative major"},
	},
}

// SuggestionEngine recommends follow-up chords for an identified chord.
type SuggestionEngine struct {
	table map[string][]Suggestion
}

// NewSuggestionEngine creates an engine backed by the built-in progression
// table.
func NewSuggestionEngine() *SuggestionEngine {
	return &SuggestionEngine{table: progressionTable}
}

// Suggest returns follow-up chords for the given chord. Chords present in
// the progression table get their curated list; anything else falls back to
// a deterministic set derived from the chord's major/minor character, so two
// calls with the same chord always return identical suggestions.
func (s *SuggestionEngine) Suggest(chord Chord) []Suggestion {
	if entry, ok := s.table[chord.Name]; ok {
		out := make([]Suggestion, len(entry))
		copy(out, entry)
		return out
	}
	return fallbackSuggestions(chord)
}

// fallbackSuggestions derives generic diatonic neighbors from the chord
// root: IV, V, vi and ii for major-leaning chords; the relative major, iv
// and V for minor-leaning ones. The chord itself leads the list as the
// "stay here" option.
func fallbackSuggestions(chord Chord) []Suggestion {
	root := chord.Root
	if chord.IsMinor() {
		return []Suggestion{
			{ChordName: PitchClassName(root) + "m", Feeling: "stay"},
			{ChordName: PitchClassName(root + 3), Feeling: "relative major"},
			{ChordName: PitchClassName(root+5) + "m", Feeling: "deepens"},
			{ChordName: PitchClassName(root + 7), Feeling: "tense pull"},
		}
	}
	return []Suggestion{
		{ChordName: PitchClassName(root), Feeling: "stay"},
		{ChordName: PitchClassName(root + 5), Feeling: "warm lift"},
		{ChordName: PitchClassName(root + 7), Feeling: "pulls home"},
		{ChordName: PitchClassName(root+9) + "m", Feeling: "wistful"},
		{ChordName: PitchClassName(root+2) + "m", Feeling: "soft shadow"},
	}
}
