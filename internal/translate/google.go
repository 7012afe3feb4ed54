package translate

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/ekisa-team/speechgate/internal/config"
)

var errUnexpectedGooglePayload = errors.New("unexpected google translate payload")

// Google uses the public translate_a/single endpoint with client=gtx.
type Google struct {
	upstream *upstream
}

// NewGoogle creates a Google translator.
func NewGoogle(cfg config.TranslationConfig, client *http.Client) *Google {
	return &Google{upstream: newUpstream(cfg, client)}
}

// Provider returns the provider name.
func (g *Google) Provider() string {
	return config.ProviderGoogle
}

// Translate returns the first translated segment of the response.
func (g *Google) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", sourceLang)
	query.Set("tl", targetLang)
	query.Set("dt", "t")
	query.Set("q", text)

	var payload []any
	if err := g.upstream.getJSON(ctx, query, &payload); err != nil {
		return "", err
	}

	return firstSegment(payload)
}

// firstSegment extracts payload[0][0][0].
func firstSegment(payload []any) (string, error) {
	if len(payload) == 0 {
		return "", errUnexpectedGooglePayload
	}
	sentences, ok := payload[0].([]any)
	if !ok || len(sentences) == 0 {
		return "", errUnexpectedGooglePayload
	}
	sentence, ok := sentences[0].([]any)
	if !ok || len(sentence) == 0 {
		return "", errUnexpectedGooglePayload
	}
	translated, ok := sentence[0].(string)
	if !ok {
		return "", errUnexpectedGooglePayload
	}
	if translated == "" {
		return "", errEmptyTranslation
	}

	return translated, nil
}
