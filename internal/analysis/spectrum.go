// SPDX-License-Identifier: MIT
package analysis

import "math"

// EnergyInRange returns the arithmetic mean of the snapshot magnitudes over
// the FFT bins covering [lowHz, highHz]. The snapshot is one magnitude per
// bin spanning 0..nyquist; bin index for a frequency is
// round(freq/nyquist * len) clamped to the valid range.
//
// The function never faults on bad shapes: a reversed range is swapped,
// frequencies are clamped to [0, nyquist], and an empty snapshot or a
// degenerate zero-width window yields 0. NaN and negative magnitudes are
// treated as 0 so downstream detectors only ever see finite non-negative
// energies.
func EnergyInRange(snapshot []float64, sampleRate, lowHz, highHz float64) float64 {
	n := len(snapshot)
	if n == 0 || sampleRate <= 0 {
		return 0
	}
	nyquist := sampleRate / 2

	if lowHz > highHz {
		lowHz, highHz = highHz, lowHz
	}
	lowHz = clampHz(lowHz, nyquist)
	highHz = clampHz(highHz, nyquist)

	lowIdx := binForFrequency(lowHz, nyquist, n)
	highIdx := binForFrequency(highHz, nyquist, n)
	if lowIdx > highIdx {
		return 0
	}

	var sum float64
	for i := lowIdx; i <= highIdx; i++ {
		if v := snapshot[i]; v > 0 && !math.IsNaN(v) {
			sum += v
		}
	}
	return sum / float64(highIdx-lowIdx+1)
}

// binForFrequency maps a frequency to its snapshot index, clamped to
// [0, n-1].
func binForFrequency(freq, nyquist float64, n int) int {
	idx := int(math.Round(freq / nyquist * float64(n)))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

func clampHz(freq, nyquist float64) float64 {
	if freq < 0 || math.IsNaN(freq) {
		return 0
	}
	if freq > nyquist {
		return nyquist
	}
	return freq
}
