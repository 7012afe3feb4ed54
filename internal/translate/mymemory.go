package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ekisa-team/speechgate/internal/config"
)

// MyMemory uses the api.mymemory.translated.net/get endpoint.
type MyMemory struct {
	upstream *upstream
	email    string
}

// NewMyMemory creates a MyMemory translator. cfg.Email, when set, raises the
// provider's daily quota.
func NewMyMemory(cfg config.TranslationConfig, client *http.Client) *MyMemory {
	return &MyMemory{
		upstream: newUpstream(cfg, client),
		email:    cfg.Email,
	}
}

// Provider returns the provider name.
func (m *MyMemory) Provider() string {
	return config.ProviderMyMemory
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseDetails string         `json:"responseDetails"`
	ResponseStatus  myMemoryStatus `json:"responseStatus"`
}

// myMemoryStatus accepts both 200 and "200".
type myMemoryStatus int

func (s *myMemoryStatus) UnmarshalJSON(b []byte) error {
	v, err := strconv.Atoi(strings.Trim(string(b), `"`))
	if err != nil {
		return fmt.Errorf("invalid responseStatus %s: %w", b, err)
	}
	*s = myMemoryStatus(v)
	return nil
}

// Translate returns responseData.translatedText.
func (m *MyMemory) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == AutoDetect {
		sourceLang = "autodetect"
	}

	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", sourceLang+"|"+targetLang)
	if m.email != "" {
		query.Set("de", m.email)
	}

	var resp myMemoryResponse
	if err := m.upstream.getJSON(ctx, query, &resp); err != nil {
		return "", err
	}

	if resp.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.ResponseStatus, resp.ResponseDetails)
	}
	if resp.ResponseData.TranslatedText == "" {
		return "", errEmptyTranslation
	}

	return resp.ResponseData.TranslatedText, nil
}
