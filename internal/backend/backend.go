package backend

import (
	"context"

	"github.com/ekisa-team/speechgate/internal/config"
)

// BackendProvider is a string identifier for a backend provider.
type BackendProvider string

const (
	// BackendProviderVITS runs MMS VITS checkpoints through an external runner.
	BackendProviderVITS BackendProvider = "vits"
)

// DefaultSampleRate is used when a model does not report its sampling rate.
const DefaultSampleRate = 22050

// Tokenizer turns text into model input ids.
type Tokenizer interface {
	// Encode returns the input ids for text. An empty result means no
	// character of text is known to the model.
	Encode(text string) ([]int64, error)
}

// Model is a loaded speech model.
type Model interface {
	// Forward runs the model on ids and returns the raw waveform.
	Forward(ctx context.Context, ids []int64) (*Waveform, error)

	// Close releases the model. The session must not be used afterwards.
	Close() error
}

// Waveform is the raw output of a forward pass.
type Waveform struct {
	// Samples are mono float samples, nominally in [-1, 1].
	Samples []float32

	// SampleRate in Hz. Zero when the model does not specify one.
	SampleRate int
}

// Session is a ready-to-use model and tokenizer pair for one language.
type Session struct {
	Model     Model
	Tokenizer Tokenizer
}

// Close closes the session model.
func (s *Session) Close() error {
	if s == nil || s.Model == nil {
		return nil
	}

	return s.Model.Close()
}

// Loader creates sessions from a language's model configuration.
type Loader interface {
	// Provider returns the backend provider.
	Provider() BackendProvider

	// Load loads the model and tokenizer for languageID. It may block for a
	// long time on first use of a checkpoint.
	Load(ctx context.Context, languageID string, cfg *config.ModelConfig) (*Session, error)
}
