// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func uniformSnapshot(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestEnergyInRange_UniformSnapshot(t *testing.T) {
	const sampleRate = 44100.0
	snapshot := uniformSnapshot(1025, 42.0)

	tests := []struct {
		name   string
		lowHz  float64
		highHz float64
	}{
		{"FullRange", 0, sampleRate / 2},
		{"KickBand", 20, 150},
		{"MidBand", 500, 2000},
		{"SingleBin", 1000, 1000},
		{"HighEdge", 20000, sampleRate / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnergyInRange(snapshot, sampleRate, tt.lowHz, tt.highHz)
			if math.Abs(got-42.0) > 1e-12 {
				t.Errorf("EnergyInRange(%g, %g) = %g, expected 42", tt.lowHz, tt.highHz, got)
			}
		})
	}
}

func TestEnergyInRange_DegenerateInputs(t *testing.T) {
	const sampleRate = 44100.0

	tests := []struct {
		name       string
		snapshot   []float64
		sampleRate float64
		lowHz      float64
		highHz     float64
		expected   float64
	}{
		{"EmptySnapshot", nil, sampleRate, 20, 150, 0},
		{"ZeroSampleRate", uniformSnapshot(8, 5), 0, 20, 150, 0},
		{"BeyondNyquistClamped", uniformSnapshot(16, 7), sampleRate, 30000, 90000, 7},
		{"NegativeLowClamped", uniformSnapshot(16, 7), sampleRate, -100, 100, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnergyInRange(tt.snapshot, tt.sampleRate, tt.lowHz, tt.highHz)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("EnergyInRange = %g, expected %g", got, tt.expected)
			}
		})
	}
}

func TestEnergyInRange_ReversedRangeSwapped(t *testing.T) {
	const sampleRate = 44100.0
	snapshot := uniformSnapshot(1025, 10)

	forward := EnergyInRange(snapshot, sampleRate, 100, 500)
	reversed := EnergyInRange(snapshot, sampleRate, 500, 100)

	if forward != reversed {
		t.Errorf("reversed range should behave like the forward range: %g vs %g", forward, reversed)
	}
	if math.IsNaN(reversed) {
		t.Error("reversed range must not produce NaN")
	}
}

func TestEnergyInRange_BadMagnitudesTreatedAsZero(t *testing.T) {
	const sampleRate = 8000.0
	snapshot := []float64{10, math.NaN(), -5, 10, 10, 10, 10, 10}

	got := EnergyInRange(snapshot, sampleRate, 0, sampleRate/2)
	if math.IsNaN(got) {
		t.Fatal("NaN magnitude leaked through")
	}
	// Bins 1 and 2 count as zero: (6*10)/8.
	if math.Abs(got-7.5) > 1e-12 {
		t.Errorf("EnergyInRange = %g, expected 7.5", got)
	}
}

func TestEnergyInRange_PartialBand(t *testing.T) {
	const sampleRate = 2048.0 // nyquist 1024, one bin per Hz with 1024 bins
	snapshot := make([]float64, 1024)
	for i := 100; i <= 200; i++ {
		snapshot[i] = 50
	}

	got := EnergyInRange(snapshot, sampleRate, 100, 200)
	if math.Abs(got-50) > 1e-9 {
		t.Errorf("in-band energy = %g, expected 50", got)
	}

	out := EnergyInRange(snapshot, sampleRate, 300, 400)
	if out != 0 {
		t.Errorf("out-of-band energy = %g, expected 0", out)
	}
}

func BenchmarkEnergyInRange(b *testing.B) {
	snapshot := uniformSnapshot(2049, 42)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		EnergyInRange(snapshot, 44100, 20, 150)
	}
}
