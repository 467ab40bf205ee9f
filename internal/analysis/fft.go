// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"earshot/internal/log"
	"earshot/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the FFT window function.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// fftWorkspace holds pre-allocated buffers so the per-tick path does not
// allocate. The magnitude buffer is shared between the processing tick and
// readers, hence the lock.
type fftWorkspace struct {
	input     []float64
	fftOutput []complex128
	magnitude []float64
	window    []float64
	mu        sync.RWMutex
}

// FFTProcessor turns raw PCM buffers into frequency-magnitude snapshots.
// Shorter input buffers are zero-padded up to the FFT size. It implements
// Processor on the write side and SpectrumProvider on the read side.
type FFTProcessor struct {
	fftCalculator *fourier.FFT
	fftSize       int
	sampleRate    float64
	workspace     fftWorkspace
}

var _ Processor = (*FFTProcessor)(nil)
var _ SpectrumProvider = (*FFTProcessor)(nil)

// NewFFTProcessor creates an FFT front-end with the given size (a power of
// 2), sample rate and window function.
func NewFFTProcessor(fftSize int, sampleRate float64, windowType WindowFunc) (*FFTProcessor, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, windowType)

	// Real-input FFT produces N/2+1 complex coefficients.
	magnitudeSize := fftSize/2 + 1

	log.Debugf("analysis: initializing FFTProcessor (size: %d, rate: %.1f Hz)", fftSize, sampleRate)

	return &FFTProcessor{
		fftCalculator: fourier.NewFFT(fftSize),
		fftSize:       fftSize,
		sampleRate:    sampleRate,
		workspace: fftWorkspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, magnitudeSize),
			magnitude: make([]float64, magnitudeSize),
			window:    windowCoeffs,
		},
	}, nil
}

// Process windows the input, runs the FFT and refreshes the magnitude
// snapshot. Input samples are int32 full-scale PCM.
func (p *FFTProcessor) Process(inputBuffer []int32) {
	p.workspace.mu.Lock()

	const normFactor = 1.0 / float64(0x80000000) // int32 -> [-1.0, 1.0)
	inputLen := len(inputBuffer)
	for i := 0; i < p.fftSize; i++ {
		if i < inputLen {
			p.workspace.input[i] = float64(inputBuffer[i]) * normFactor * p.workspace.window[i]
		} else {
			p.workspace.input[i] = 0
		}
	}

	p.fftCalculator.Coefficients(p.workspace.fftOutput, p.workspace.input)

	for i, c := range p.workspace.fftOutput {
		p.workspace.magnitude[i] = cmplx.Abs(c)
	}

	p.workspace.mu.Unlock()
}

// GetMagnitudes returns a copy of the latest magnitude snapshot. Allocates;
// per-tick readers should prefer GetMagnitudesInto.
func (p *FFTProcessor) GetMagnitudes() []float64 {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	magCopy := make([]float64, len(p.workspace.magnitude))
	copy(magCopy, p.workspace.magnitude)
	return magCopy
}

// GetMagnitudesInto copies the latest magnitude snapshot into dest, which
// must have length fftSize/2+1.
func (p *FFTProcessor) GetMagnitudesInto(dest []float64) error {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	if len(dest) != len(p.workspace.magnitude) {
		return fmt.Errorf("destination length %d does not match required length %d", len(dest), len(p.workspace.magnitude))
	}
	copy(dest, p.workspace.magnitude)
	return nil
}

// GetFrequencyForBin returns the center frequency (Hz) for an FFT bin index,
// or 0 for an out-of-range index.
func (p *FFTProcessor) GetFrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.workspace.fftOutput) {
		return 0.0
	}
	return float64(binIndex) * (p.sampleRate / float64(p.fftSize))
}

// GetFFTSize returns the configured FFT size.
func (p *FFTProcessor) GetFFTSize() int {
	return p.fftSize
}

// GetSampleRate returns the configured sample rate (Hz).
func (p *FFTProcessor) GetSampleRate() float64 {
	return p.sampleRate
}

// ParseWindowFunc converts a window name (case-insensitive) to a WindowFunc.
// Returns Hann plus an error for unknown names.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: %q", name)
	}
}

// applyWindow fills coeffs with the selected window function. The slice is
// seeded with ones because the gonum window funcs multiply in place.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		log.Warnf("analysis: unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}

var (
	_ Processor        = (*FFTProcessor)(nil)
	_ SpectrumProvider = (*FFTProcessor)(nil)
)
