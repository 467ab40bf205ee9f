// SPDX-License-Identifier: MIT
//
// Package wavein streams PCM frames out of WAV files in the int32
// full-scale format the analysis pipeline expects, mixing multi-channel
// audio down to mono on the way.
package wavein

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Reader decodes a WAV file frame by frame. It is not safe for concurrent
// use.
type Reader struct {
	file     *os.File
	decoder  *wav.Decoder
	buf      *audio.IntBuffer // Reusable decode buffer.
	channels int
	shift    uint // Left shift that scales samples to int32 full range.
}

// Open opens a WAV file and positions the reader at its first PCM frame.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("not a valid wav file: %s", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to locate pcm data: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		file.Close()
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	return &Reader{
		file:     file,
		decoder:  decoder,
		channels: int(decoder.NumChans),
		shift:    uint(32 - bitDepth),
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (r *Reader) SampleRate() int {
	return int(r.decoder.SampleRate)
}

// ReadFrame fills out with up to len(out) mono samples scaled to int32 full
// range, averaging channels for multi-channel files. It returns the number
// of samples written and io.EOF once the file is exhausted. A short final
// frame is zero-padded, matching what a live capture delivers at stream
// end.
func (r *Reader) ReadFrame(out []int32) (int, error) {
	want := len(out) * r.channels
	if r.buf == nil || len(r.buf.Data) != want {
		r.buf = &audio.IntBuffer{Data: make([]int, want)}
	}

	n, err := r.decoder.PCMBuffer(r.buf)
	if err != nil {
		return 0, fmt.Errorf("failed to read pcm data: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	frames := n / r.channels
	for i := 0; i < frames; i++ {
		var sum int64
		for ch := 0; ch < r.channels; ch++ {
			sum += int64(r.buf.Data[i*r.channels+ch])
		}
		out[i] = int32((sum / int64(r.channels)) << r.shift)
	}
	for i := frames; i < len(out); i++ {
		out[i] = 0
	}
	return frames, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
