package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/ekisa-team/speechgate/internal/config"
	"github.com/ekisa-team/speechgate/internal/translate"
)

// Default languages of a translation request.
const (
	DefaultTargetLang = "en"
	DefaultSourceLang = translate.AutoDetect
)

// ErrEmptyText is returned for blank translation input.
var ErrEmptyText = errors.New("text cannot be empty")

// Translation validates translation requests and forwards them upstream.
// The translator can be replaced while requests are in flight.
type Translation struct {
	translator atomic.Pointer[translate.Translator]
	client     *http.Client
}

// NewTranslation creates a translation service around tr.
func NewTranslation(tr translate.Translator, client *http.Client) *Translation {
	s := &Translation{client: client}
	s.translator.Store(&tr)
	return s
}

// NewTranslationFromConfig creates a translation service for cfg.
func NewTranslationFromConfig(cfg config.TranslationConfig, client *http.Client) (*Translation, error) {
	tr, err := translate.New(cfg, client)
	if err != nil {
		return nil, err
	}

	return NewTranslation(tr, client), nil
}

// Reconfigure swaps in a translator built from cfg. The current translator
// is kept on error.
func (s *Translation) Reconfigure(cfg config.TranslationConfig) error {
	tr, err := translate.New(cfg, s.client)
	if err != nil {
		return err
	}

	s.translator.Store(&tr)
	slog.Info("Translation provider configured", "provider", tr.Provider(), "endpoint", cfg.Endpoint)
	return nil
}

// Provider returns the name of the active provider.
func (s *Translation) Provider() string {
	return (*s.translator.Load()).Provider()
}

// Translate translates text. Empty languages fall back to DefaultSourceLang
// and DefaultTargetLang. Blank text fails before any outbound call.
func (s *Translation) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if sourceLang == "" {
		sourceLang = DefaultSourceLang
	}
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}

	tr := *s.translator.Load()
	out, err := tr.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		slog.Warn("Translation failed", "provider", tr.Provider(), "source_lang", sourceLang, "target_lang", targetLang, "error", err)
		return "", err
	}

	return out, nil
}
