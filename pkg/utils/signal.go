// SPDX-License-Identifier: MIT
//
// Package utils provides synthetic signal helpers shared by tests and
// benchmarks.
package utils

import "math"

// GenerateSineWave returns size samples of a full-scale sine at the given
// frequency, as int32 PCM.
func GenerateSineWave(size int, sampleRate, frequency float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int32(math.Sin(2*math.Pi*frequency*t) * math.MaxInt32 * 0.9)
	}
	return buffer
}

// GenerateChordWave returns size samples mixing the given frequencies at
// equal amplitude, as int32 PCM. Useful for exercising note and chord
// detection against a known set of fundamentals.
func GenerateChordWave(size int, sampleRate float64, frequencies ...float64) []int32 {
	buffer := make([]int32, size)
	if len(frequencies) == 0 {
		return buffer
	}
	amp := 0.9 / float64(len(frequencies))
	for i := range buffer {
		t := float64(i) / sampleRate
		var signal float64
		for _, f := range frequencies {
			signal += math.Sin(2*math.Pi*f*t) * amp
		}
		buffer[i] = int32(signal * math.MaxInt32)
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude within
// [startBin, endBin], clamped to the valid range.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
