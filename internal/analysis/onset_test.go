// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"
	"time"

	"earshot/internal/config"
)

const historyLen = 40

func newTestDetector(t *testing.T, threshold float64) *OnsetDetector {
	t.Helper()
	det, err := NewOnsetDetector(threshold, historyLen, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("NewOnsetDetector: %v", err)
	}
	return det
}

// warmUp fills the history with the given energy, leaving the detector one
// observation short of full, and returns the next tick time.
func warmUp(det *OnsetDetector, energy float64, start time.Time, tick time.Duration) time.Time {
	now := start
	for i := 0; i < historyLen-1; i++ {
		det.Observe(energy, now)
		now = now.Add(tick)
	}
	return now
}

func TestNewOnsetDetector_InvalidParams(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		history   int
		cooldown  time.Duration
	}{
		{"ZeroThreshold", 0, 40, time.Millisecond},
		{"NegativeThreshold", -1.3, 40, time.Millisecond},
		{"ZeroHistory", 1.3, 0, time.Millisecond},
		{"NegativeHistory", 1.3, -5, time.Millisecond},
		{"NegativeCooldown", 1.3, 40, -time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewOnsetDetector(tt.threshold, tt.history, tt.cooldown); err == nil {
				t.Error("expected construction error, got nil")
			}
		})
	}
}

func TestObserve_WarmUpGate(t *testing.T) {
	det := newTestDetector(t, 1.3)
	now := time.Now()

	// Huge energies must not fire while the history is filling.
	for i := 0; i < historyLen-1; i++ {
		if det.Observe(1e9, now) {
			t.Fatalf("fired during warm-up at observation %d", i)
		}
		if det.State(now) != WarmingUp {
			t.Fatalf("expected WarmingUp at observation %d", i)
		}
		now = now.Add(16 * time.Millisecond)
	}
}

func TestObserve_FiresOnSpike(t *testing.T) {
	det := newTestDetector(t, 1.3)
	now := warmUp(det, 20, time.Now(), 16*time.Millisecond)

	if !det.Observe(200, now) {
		t.Error("expected onset on strong spike after warm-up")
	}
	if det.State(now) != Cooldown {
		t.Error("expected Cooldown immediately after firing")
	}
}

func TestObserve_ThresholdBoundaryIsStrict(t *testing.T) {
	// Threshold 1.0 with a uniform history keeps every quantity exactly
	// representable: observing base yields avg == base == energy, so the
	// strict > comparison must not fire.
	t.Run("ExactlyAtThreshold", func(t *testing.T) {
		det := newTestDetector(t, 1.0)
		now := warmUp(det, 16, time.Now(), 16*time.Millisecond)
		if det.Observe(16, now) {
			t.Error("energy exactly at avg*threshold must not fire (strict >)")
		}
	})

	t.Run("JustAboveThreshold", func(t *testing.T) {
		det := newTestDetector(t, 1.0)
		now := warmUp(det, 16, time.Now(), 16*time.Millisecond)
		// 16.5 against an average of (39*16 + 16.5)/40 = 16.0125.
		if !det.Observe(16.5, now) {
			t.Error("energy just above avg*threshold must fire")
		}
	})

	// The same shape with a realistic threshold and a safe margin.
	t.Run("BelowScaledThreshold", func(t *testing.T) {
		det := newTestDetector(t, 1.3)
		now := warmUp(det, 20, time.Now(), 16*time.Millisecond)
		if det.Observe(25, now) { // avg*1.3 ≈ 26.2
			t.Error("energy below avg*threshold must not fire")
		}
	})
}

func TestObserve_CooldownEnforcement(t *testing.T) {
	det := newTestDetector(t, 1.3)
	start := time.Now()
	now := warmUp(det, 20, start, 16*time.Millisecond)

	if !det.Observe(200, now) {
		t.Fatal("expected first onset")
	}
	firedAt := now

	// Sustained loud energy within the cooldown window must not re-fire.
	for offset := 10 * time.Millisecond; offset < 100*time.Millisecond; offset += 10 * time.Millisecond {
		if det.Observe(200, firedAt.Add(offset)) {
			t.Fatalf("re-fired %s after onset, inside 100ms cooldown", offset)
		}
	}

	// Once the cooldown has elapsed the detector can fire again (the history
	// now contains several 200s, so push a proportionally larger spike).
	if !det.Observe(2000, firedAt.Add(150*time.Millisecond)) {
		t.Error("expected onset after cooldown elapsed")
	}
}

func TestObserve_LevelIndependence(t *testing.T) {
	// The same relative spike should fire at any absolute level.
	for _, level := range []float64{1, 20, 500, 10000} {
		det := newTestDetector(t, 1.3)
		now := warmUp(det, level, time.Now(), 16*time.Millisecond)
		if !det.Observe(level*5, now) {
			t.Errorf("5x spike failed to fire at ambient level %g", level)
		}
	}
}

func TestReset_ReturnsToWarmingUp(t *testing.T) {
	det := newTestDetector(t, 1.3)
	now := warmUp(det, 20, time.Now(), 16*time.Millisecond)
	det.Observe(200, now)

	det.Reset()
	if det.State(now) != WarmingUp {
		t.Error("expected WarmingUp after reset")
	}
	if det.Observe(1e9, now.Add(time.Second)) {
		t.Error("reset detector must not fire before refilling its history")
	}
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		SampleRate:      44100,
		FramesPerBuffer: 1024,
		FFTSize:         2048,
		FFTWindow:       "hann",
		HistoryLength:   historyLen,
		Cooldown:        config.Duration(100 * time.Millisecond),
		Kick:            config.BandConfig{LowHz: 20, HighHz: 150, Threshold: 1.3},
		Snare:           config.BandConfig{LowHz: 200, HighHz: 2000, Threshold: 1.25},
		Hihat:           config.BandConfig{LowHz: 6000, HighHz: 16000, Threshold: 1.15},
	}
}

func TestSetBand_ClampAndSwapRoundTrip(t *testing.T) {
	bd, err := NewBeatDetector(testAnalysisConfig())
	if err != nil {
		t.Fatalf("NewBeatDetector: %v", err)
	}

	tests := []struct {
		name     string
		set      BandDefinition
		expected BandDefinition
	}{
		{
			"Normal",
			BandDefinition{LowHz: 30, HighHz: 140, Threshold: 1.2},
			BandDefinition{LowHz: 30, HighHz: 140, Threshold: 1.2},
		},
		{
			"LowDraggedPastHigh",
			BandDefinition{LowHz: 300, HighHz: 100, Threshold: 1.2},
			BandDefinition{LowHz: 100, HighHz: 300, Threshold: 1.2},
		},
		{
			"HighBeyondNyquist",
			BandDefinition{LowHz: 100, HighHz: 90000, Threshold: 1.2},
			BandDefinition{LowHz: 100, HighHz: 22050, Threshold: 1.2},
		},
		{
			"NegativeLow",
			BandDefinition{LowHz: -40, HighHz: 150, Threshold: 1.2},
			BandDefinition{LowHz: 0, HighHz: 150, Threshold: 1.2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd.SetBand(BandKick, tt.set)
			got, ok := bd.BandDef(BandKick)
			if !ok {
				t.Fatal("kick band missing")
			}
			if got != tt.expected {
				t.Errorf("BandDef = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestSetBand_IgnoresInvalidThreshold(t *testing.T) {
	bd, err := NewBeatDetector(testAnalysisConfig())
	if err != nil {
		t.Fatalf("NewBeatDetector: %v", err)
	}

	bd.SetBand(BandSnare, BandDefinition{LowHz: 200, HighHz: 2000, Threshold: -1})
	got, _ := bd.BandDef(BandSnare)
	if got.Threshold != 1.25 {
		t.Errorf("threshold = %g, expected previous value 1.25 kept", got.Threshold)
	}
}

// TestBeatDetector_PulseScenario drives the kick band with a synthetic
// snapshot pulsing between strong (200) and background (20) energy for 400
// ticks at ~60 Hz and checks the exact number of onsets.
//
// Pulses land every 30 ticks (~500ms apart, far beyond the 100ms cooldown),
// so every pulse after the 40-tick warm-up fires: ticks 60, 90, ..., 390 for
// 12 onsets in total.
func TestBeatDetector_PulseScenario(t *testing.T) {
	const (
		sampleRate = 44100.0
		ticks      = 400
		pulseEvery = 30
		expected   = 12
	)
	tick := time.Second / 60

	bd, err := NewBeatDetector(testAnalysisConfig())
	if err != nil {
		t.Fatalf("NewBeatDetector: %v", err)
	}

	// 1025-bin snapshot; kick band 20-150Hz covers the low bins.
	quiet := uniformSnapshot(1025, 20)
	loud := uniformSnapshot(1025, 200)

	fired := 0
	now := time.Now()
	for i := 0; i < ticks; i++ {
		snapshot := quiet
		if i%pulseEvery == 0 {
			snapshot = loud
		}
		for _, band := range bd.Process(snapshot, now) {
			if band == BandKick {
				fired++
			}
		}
		now = now.Add(tick)
	}

	if fired != expected {
		t.Errorf("kick fired %d times over %d ticks, expected %d", fired, ticks, expected)
	}
}

// With pulses closer together than the cooldown allows, the cooldown caps
// the fire rate.
func TestBeatDetector_CooldownLimitsRate(t *testing.T) {
	tick := time.Second / 60 // ~16.7ms; cooldown covers 6 ticks

	bd, err := NewBeatDetector(testAnalysisConfig())
	if err != nil {
		t.Fatalf("NewBeatDetector: %v", err)
	}

	quiet := uniformSnapshot(1025, 20)
	loud := uniformSnapshot(1025, 400)

	fired := 0
	now := time.Now()
	for i := 0; i < 100; i++ {
		snapshot := quiet
		if i >= historyLen && i%2 == 0 {
			snapshot = loud // a pulse every ~33ms, three per cooldown window
		}
		for _, band := range bd.Process(snapshot, now) {
			if band == BandKick {
				fired++
			}
		}
		now = now.Add(tick)
	}

	// 30 pulses land in 60 ticks (~1 second); at most one fire per 100ms.
	if fired == 0 {
		t.Fatal("expected some onsets")
	}
	if fired > 11 {
		t.Errorf("fired %d times in ~1s, cooldown should cap at ~10", fired)
	}
}

func TestBeatDetector_BandsAreIndependent(t *testing.T) {
	const sampleRate = 44100.0
	bd, err := NewBeatDetector(testAnalysisConfig())
	if err != nil {
		t.Fatalf("NewBeatDetector: %v", err)
	}

	// Energy concentrated in the kick band only.
	n := 1025
	nyquist := sampleRate / 2
	quiet := uniformSnapshot(n, 10)
	kickLoud := uniformSnapshot(n, 10)
	for i := range kickLoud {
		freq := float64(i) / float64(n) * nyquist
		if freq >= 20 && freq <= 150 {
			kickLoud[i] = 500
		}
	}

	now := time.Now()
	for i := 0; i < historyLen; i++ {
		bd.Process(quiet, now)
		now = now.Add(16 * time.Millisecond)
	}

	fired := bd.Process(kickLoud, now)
	if len(fired) != 1 || fired[0] != BandKick {
		t.Errorf("expected only kick to fire, got %v", fired)
	}
}

func BenchmarkBeatDetectorProcess(b *testing.B) {
	bd, err := NewBeatDetector(testAnalysisConfig())
	if err != nil {
		b.Fatalf("NewBeatDetector: %v", err)
	}
	snapshot := uniformSnapshot(1025, 42)
	now := time.Now()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bd.Process(snapshot, now)
		now = now.Add(16 * time.Millisecond)
	}
}
