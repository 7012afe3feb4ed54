// Package audio turns model waveforms into WAV files.
package audio

import (
	"errors"
	"fmt"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// MaxInt16 is the value the waveform peak is scaled to.
	MaxInt16 = math.MaxInt16

	// BitDepth of the encoded PCM payload.
	BitDepth = 16

	// NumChannels of the encoded PCM payload.
	NumChannels = 1

	// ContentType is the MIME type of EncodeWAV output.
	ContentType = "audio/wav"

	wavFormatPCM = 1
)

// Error definitions for the audio package.
var (
	ErrEmptyWaveform     = errors.New("waveform has no samples")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrNonFiniteSample   = errors.New("waveform contains NaN or infinite samples")
)

// Normalize scales samples so that the peak absolute amplitude maps to
// MaxInt16 and truncates each result toward zero. An all-zero waveform
// stays all zero. NaN and infinite samples are ignored for the peak and
// map to zero.
func Normalize(samples []float32) []int {
	peak := 0.0
	for _, s := range samples {
		if !finite(s) {
			continue
		}
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		peak = 1.0
	}

	out := make([]int, len(samples))
	for i, s := range samples {
		if !finite(s) {
			continue
		}
		out[i] = int(float64(s) / peak * MaxInt16)
	}

	return out
}

func finite(s float32) bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// EncodeWAV normalizes samples to 16-bit PCM and wraps them in a mono WAV
// container. The output depends only on its inputs.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyWaveform
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	for i, s := range samples {
		if !finite(s) {
			return nil, fmt.Errorf("%w: index %d", ErrNonFiniteSample, i)
		}
	}

	buf := &writeSeeker{}
	enc := wav.NewEncoder(buf, sampleRate, BitDepth, NumChannels, wavFormatPCM)

	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: NumChannels, SampleRate: sampleRate},
		Data:           Normalize(samples),
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return nil, fmt.Errorf("write pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}

	return buf.Bytes(), nil
}
