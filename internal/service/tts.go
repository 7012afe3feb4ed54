package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekisa-team/speechgate/internal/audio"
	"github.com/ekisa-team/speechgate/internal/config"
	"github.com/ekisa-team/speechgate/internal/model"
)

// Synthesizer produces a raw waveform for text in a language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageID string) (*model.Synthesis, error)
}

// Speech is an encoded synthesis result.
type Speech struct {
	Audio       []byte
	ContentType string
	LanguageID  string
	SampleRate  int
}

// TTS is a service abstraction for text-to-speech.
type TTS struct {
	synth Synthesizer
}

// NewTTS creates a new TTS service.
func NewTTS(synth Synthesizer) *TTS {
	return &TTS{synth: synth}
}

// Synthesize synthesizes text and encodes the result as WAV. An empty
// languageID selects the default language.
func (s *TTS) Synthesize(ctx context.Context, text, languageID string) (*Speech, error) {
	if languageID == "" {
		languageID = config.DefaultLanguage
	}

	start := time.Now()
	out, err := s.synth.Synthesize(ctx, text, languageID)
	if err != nil {
		return nil, err
	}

	data, err := audio.EncodeWAV(out.Samples, out.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: encode wav: %w", model.ErrSynthesisFailure, err)
	}

	slog.Debug("Synthesized speech",
		"language_id", languageID,
		"samples", len(out.Samples),
		"sample_rate", out.SampleRate,
		"duration", time.Since(start),
	)

	return &Speech{
		Audio:       data,
		ContentType: audio.ContentType,
		LanguageID:  languageID,
		SampleRate:  out.SampleRate,
	}, nil
}
