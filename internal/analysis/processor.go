// SPDX-License-Identifier: MIT
package analysis

// Processor is the standard interface for components that consume raw audio
// buffers. Implementations should be efficient as Process is called once per
// analysis tick on the hot path.
type Processor interface {
	Process(inputBuffer []int32)
}

// SpectrumProvider exposes the latest frequency-magnitude snapshot. It
// decouples the detectors from the concrete FFT implementation: anything that
// can hand over a magnitude spectrum (an FFT front-end, a test fixture, a
// remote capture source) can drive them.
type SpectrumProvider interface {
	// GetMagnitudes returns a copy of the latest magnitude spectrum.
	GetMagnitudes() []float64
	// GetMagnitudesInto copies the latest magnitude spectrum into dest,
	// which must have length GetFFTSize()/2+1. Avoids per-tick allocation.
	GetMagnitudesInto(dest []float64) error
	// GetFrequencyForBin returns the center frequency (Hz) of an FFT bin.
	GetFrequencyForBin(binIndex int) float64
	// GetFFTSize returns the number of FFT points.
	GetFFTSize() int
	// GetSampleRate returns the sample rate (Hz) of the analyzed audio.
	GetSampleRate() float64
}
