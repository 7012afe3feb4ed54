// Package translate forwards text to a remote translation API.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ekisa-team/speechgate/internal/config"
)

// AutoDetect asks the provider to detect the source language.
const AutoDetect = "auto"

const maxResponseSize = 1 << 20

var (
	// ErrUpstream reports a network failure or a non-success status from the
	// translation provider.
	ErrUpstream = errors.New("translation upstream failed")

	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown translation provider")

	errEmptyTranslation = errors.New("empty translation in provider response")
)

// Translator converts text between languages.
type Translator interface {
	// Translate returns text translated from sourceLang to targetLang.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// Provider returns the provider name.
	Provider() string
}

// New creates the translator selected by cfg.Provider. A nil client uses
// http.DefaultClient.
func New(cfg config.TranslationConfig, client *http.Client) (Translator, error) {
	switch cfg.Provider {
	case config.ProviderGoogle, "":
		if cfg.Endpoint == "" {
			cfg.Endpoint = config.GoogleTranslateEndpoint
		}
		return NewGoogle(cfg, client), nil
	case config.ProviderMyMemory:
		if cfg.Endpoint == "" {
			cfg.Endpoint = config.MyMemoryEndpoint
		}
		return NewMyMemory(cfg, client), nil
	case config.ProviderStub:
		return NewStub(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// upstream is the throttled HTTP client shared by the remote providers.
type upstream struct {
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string
	timeout  time.Duration
}

func newUpstream(cfg config.TranslationConfig, client *http.Client) *upstream {
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTranslateTimeout
	}

	return &upstream{
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		endpoint: cfg.Endpoint,
		timeout:  timeout,
	}
}

// getJSON sends one GET request with query and decodes the JSON body into out.
// There are no retries.
func (u *upstream) getJSON(ctx context.Context, query url.Values, out any) error {
	if err := u.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	endpoint, err := url.Parse(u.endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", u.endpoint, err)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
