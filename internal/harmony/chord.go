// SPDX-License-Identifier: MIT
package harmony

import (
	"fmt"
)

// Template is a named chord shape: semitone intervals from the root,
// starting at 0, plus the suffix used when rendering a display name
// (major renders as the bare root, minor as root+"m").
type Template struct {
	Name      string
	Suffix    string
	Intervals []int
}

// defaultCatalog lists the chord templates in matching order. Order matters:
// identification is a greedy first-match over roots ascending then templates
// in this order, so earlier templates win ties.
var defaultCatalog = []Template{
	{Name: "major", Suffix: "", Intervals: []int{0, 4, 7}},
	{Name: "minor", Suffix: "m", Intervals: []int{0, 3, 7}},
	{Name: "diminished", Suffix: "dim", Intervals: []int{0, 3, 6}},
	{Name: "augmented", Suffix: "aug", Intervals: []int{0, 4, 8}},
	{Name: "sus2", Suffix: "sus2", Intervals: []int{0, 2, 7}},
	{Name: "sus4", Suffix: "sus4", Intervals: []int{0, 5, 7}},
	{Name: "dominant7", Suffix: "7", Intervals: []int{0, 4, 7, 10}},
	{Name: "major7", Suffix: "maj7", Intervals: []int{0, 4, 7, 11}},
	{Name: "minor7", Suffix: "m7", Intervals: []int{0, 3, 7, 10}},
	{Name: "major6", Suffix: "6", Intervals: []int{0, 4, 7, 9}},
	{Name: "minor6", Suffix: "m6", Intervals: []int{0, 3, 7, 9}},
}

// Chord is an identified chord. Confidence is the percentage of the
// template's defining tones actually observed; it can be below 100 even on
// acceptance (a partial match above the minimum).
type Chord struct {
	Root       int     // Pitch class of the root, 0=C .. 11=B.
	Template   string  // Matched template name, e.g. "minor7".
	Name       string  // Display name, e.g. "Am7".
	Confidence float64 // 0..100.
}

// Identifier matches note sets against a chord template catalog.
//
// The search is deliberately a greedy first-match, not a best-match: roots
// are tried in ascending pitch-class order and templates in catalog order,
// and the first pair reaching the minimum match count is accepted. That
// keeps ambiguous note sets deterministic and explainable at the cost of
// sometimes preferring a simpler chord over a fuller one.
type Identifier struct {
	catalog []Template
}

// NewIdentifier creates an identifier with the default template catalog.
func NewIdentifier() *Identifier {
	return &Identifier{catalog: defaultCatalog}
}

// NewIdentifierWithCatalog creates an identifier with a custom catalog.
// An empty catalog is a programmer error.
func NewIdentifierWithCatalog(catalog []Template) (*Identifier, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("chord template catalog must not be empty")
	}
	for _, tmpl := range catalog {
		if len(tmpl.Intervals) == 0 {
			return nil, fmt.Errorf("chord template %q has no intervals", tmpl.Name)
		}
	}
	return &Identifier{catalog: catalog}, nil
}

// Identify finds the first template match for the given notes. At least two
// distinct pitch classes are required; fewer is a normal state reported as
// ok=false, never an error.
func (id *Identifier) Identify(notes []Note) (Chord, bool) {
	classes := UniquePitchClasses(notes)
	if len(classes) < 2 {
		return Chord{}, false
	}

	var present [12]bool
	for _, pc := range classes {
		present[pc] = true
	}

	for _, root := range classes {
		for _, tmpl := range id.catalog {
			matches := 0
			for _, interval := range tmpl.Intervals {
				if present[(root+interval)%12] {
					matches++
				}
			}
			need := min(3, len(tmpl.Intervals))
			if matches >= need {
				return Chord{
					Root:       root,
					Template:   tmpl.Name,
					Name:       PitchClassName(root) + tmpl.Suffix,
					Confidence: float64(matches) / float64(len(tmpl.Intervals)) * 100,
				}, true
			}
		}
	}
	return Chord{}, false
}

// minorFamily holds the template names whose sound is minor for the purpose
// of suggestion fallbacks.
var minorFamily = map[string]bool{
	"minor":      true,
	"minor7":     true,
	"minor6":     true,
	"diminished": true,
}

// IsMinor reports whether the chord's template belongs to the minor family.
func (c Chord) IsMinor() bool {
	return minorFamily[c.Template]
}
