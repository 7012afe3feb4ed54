package translate

import (
	"context"

	"github.com/ekisa-team/speechgate/internal/config"
)

// Stub is an offline translator that prefixes text with the target language.
type Stub struct{}

// NewStub creates a stub translator.
func NewStub() *Stub {
	return &Stub{}
}

// Provider returns the provider name.
func (s *Stub) Provider() string {
	return config.ProviderStub
}

// Translate returns "[targetLang] text".
func (s *Stub) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return "[" + targetLang + "] " + text, nil
}
