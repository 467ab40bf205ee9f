// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"time"

	"earshot/internal/config"
)

// Band identifies a tracked percussive frequency band.
type Band int

const (
	BandKick Band = iota
	BandSnare
	BandHihat
	numBands
)

// String returns the band name used in event payloads and logs.
func (b Band) String() string {
	switch b {
	case BandKick:
		return "kick"
	case BandSnare:
		return "snare"
	case BandHihat:
		return "hihat"
	default:
		return "unknown"
	}
}

// Bands lists all tracked bands in their canonical order.
func Bands() []Band {
	return []Band{BandKick, BandSnare, BandHihat}
}

// BandDefinition is a frequency window of interest plus its detection
// sensitivity multiplier. Mutable at runtime (e.g. dragged from a UI); the
// current value is read on every tick.
type BandDefinition struct {
	LowHz     float64
	HighHz    float64
	Threshold float64
}

// DetectorState describes where an onset detector is in its cycle.
type DetectorState int

const (
	// WarmingUp means the energy history is not yet full; the detector
	// cannot fire.
	WarmingUp DetectorState = iota
	// Armed means the detector is ready to fire on the next energy spike.
	Armed
	// Cooldown means an onset fired recently and re-triggering is gated.
	Cooldown
)

// OnsetDetector is a per-band energy onset state machine. It keeps a rolling
// history of the last K energy readings and flags an onset when the current
// energy exceeds a multiple of the rolling average. The rolling average
// adapts to ambient loudness so detection is level-independent; the cooldown
// prevents double-triggering on a single sustained transient.
//
// An instance is owned and ticked by exactly one caller; it is not safe for
// concurrent use.
type OnsetDetector struct {
	threshold float64
	cooldown  time.Duration

	history []float64 // Ring buffer, fixed capacity.
	next    int
	count   int

	lastFired time.Time
	hasFired  bool
}

// NewOnsetDetector creates a detector with the given sensitivity multiplier,
// history capacity (in ticks) and cooldown. Invalid construction parameters
// are programmer errors and are reported as such; per-tick input is never
// validated.
func NewOnsetDetector(threshold float64, historyLength int, cooldown time.Duration) (*OnsetDetector, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("onset threshold must be positive, got %g", threshold)
	}
	if historyLength <= 0 {
		return nil, fmt.Errorf("onset history length must be positive, got %d", historyLength)
	}
	if cooldown < 0 {
		return nil, fmt.Errorf("onset cooldown must not be negative, got %s", cooldown)
	}
	return &OnsetDetector{
		threshold: threshold,
		cooldown:  cooldown,
		history:   make([]float64, historyLength),
	}, nil
}

// SetThreshold updates the sensitivity multiplier. Non-positive values are
// ignored.
func (d *OnsetDetector) SetThreshold(threshold float64) {
	if threshold > 0 {
		d.threshold = threshold
	}
}

// Threshold returns the current sensitivity multiplier.
func (d *OnsetDetector) Threshold() float64 {
	return d.threshold
}

// State reports the detector's current phase at the given time.
func (d *OnsetDetector) State(now time.Time) DetectorState {
	if d.count < len(d.history) {
		return WarmingUp
	}
	if d.hasFired && now.Sub(d.lastFired) < d.cooldown {
		return Cooldown
	}
	return Armed
}

// Observe records one energy reading and reports whether an onset fired.
// The reading enters the rolling history before the average is taken, so a
// spike competes against a history that already contains it. Comparison is
// strictly greater-than: energy exactly at avg*threshold does not fire.
//
// The detector trusts its input to be a finite non-negative number; malformed
// magnitudes are rejected at the band-energy boundary, not here.
func (d *OnsetDetector) Observe(energy float64, now time.Time) bool {
	d.history[d.next] = energy
	d.next = (d.next + 1) % len(d.history)
	if d.count < len(d.history) {
		d.count++
		if d.count < len(d.history) {
			return false
		}
	}

	if d.hasFired && now.Sub(d.lastFired) < d.cooldown {
		return false
	}

	var sum float64
	for _, v := range d.history {
		sum += v
	}
	avg := sum / float64(len(d.history))

	if energy > avg*d.threshold {
		d.lastFired = now
		d.hasFired = true
		return true
	}
	return false
}

// Reset clears the history and cooldown state, returning the detector to
// WarmingUp.
func (d *OnsetDetector) Reset() {
	for i := range d.history {
		d.history[i] = 0
	}
	d.next = 0
	d.count = 0
	d.hasFired = false
}

// BeatDetector runs one OnsetDetector per tracked band over successive
// frequency snapshots. Band windows are clamped to [0, nyquist] and swapped
// if reversed when set, so the tick path never sees an invalid range.
type BeatDetector struct {
	sampleRate float64
	bands      map[Band]BandDefinition
	detectors  map[Band]*OnsetDetector
}

// NewBeatDetector builds a detector for the three percussive bands from the
// analysis configuration.
func NewBeatDetector(cfg config.AnalysisConfig) (*BeatDetector, error) {
	bd := &BeatDetector{
		sampleRate: cfg.SampleRate,
		bands:      make(map[Band]BandDefinition, numBands),
		detectors:  make(map[Band]*OnsetDetector, numBands),
	}
	defs := map[Band]config.BandConfig{
		BandKick:  cfg.Kick,
		BandSnare: cfg.Snare,
		BandHihat: cfg.Hihat,
	}
	for band, bc := range defs {
		det, err := NewOnsetDetector(bc.Threshold, cfg.HistoryLength, time.Duration(cfg.Cooldown))
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", band, err)
		}
		bd.detectors[band] = det
		bd.SetBand(band, BandDefinition{LowHz: bc.LowHz, HighHz: bc.HighHz, Threshold: bc.Threshold})
	}
	return bd, nil
}

// SetBand updates a band's window and threshold. The window is normalized so
// that low <= high and both edges sit inside [0, nyquist]; reading the band
// back yields the normalized values.
func (bd *BeatDetector) SetBand(band Band, def BandDefinition) {
	nyquist := bd.sampleRate / 2
	if def.LowHz > def.HighHz {
		def.LowHz, def.HighHz = def.HighHz, def.LowHz
	}
	def.LowHz = clampHz(def.LowHz, nyquist)
	def.HighHz = clampHz(def.HighHz, nyquist)

	if det, ok := bd.detectors[band]; ok {
		det.SetThreshold(def.Threshold)
		def.Threshold = det.Threshold()
		bd.bands[band] = def
	}
}

// BandDef returns the current (normalized) definition for a band.
func (bd *BeatDetector) BandDef(band Band) (BandDefinition, bool) {
	def, ok := bd.bands[band]
	return def, ok
}

// Detector returns the onset detector for a band, mainly for state
// inspection.
func (bd *BeatDetector) Detector(band Band) (*OnsetDetector, bool) {
	det, ok := bd.detectors[band]
	return det, ok
}

// Process feeds one frequency snapshot to every band detector and returns
// the bands that fired this tick, in canonical band order. Returns nil when
// nothing fired.
func (bd *BeatDetector) Process(snapshot []float64, now time.Time) []Band {
	var fired []Band
	for _, band := range Bands() {
		def := bd.bands[band]
		energy := EnergyInRange(snapshot, bd.sampleRate, def.LowHz, def.HighHz)
		if bd.detectors[band].Observe(energy, now) {
			fired = append(fired, band)
		}
	}
	return fired
}

// Reset returns every band detector to its warming-up state.
func (bd *BeatDetector) Reset() {
	for _, det := range bd.detectors {
		det.Reset()
	}
}
